package utils

import (
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestEnsureColumns(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"satisfaction", "Class"},
		{"satisfied", "Eco"},
		{"neutral or dissatisfied", "Business"},
	})

	out, present := EnsureColumns(df, "Class", "Age")
	assert.True(t, present["Class"])
	assert.False(t, present["Age"])
	require.True(t, HasColumn(out, "Age"))
	assert.True(t, IsMissing(out.Col("Age").Elem(0)))
	assert.Equal(t, 2, out.Nrow())
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-05", "2024/01/05", "2024-01-05 10:00:00", "01/05/2024"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, d.Year())
		assert.Equal(t, 5, d.Day())
	}
	_, err := ParseDate("yesterday")
	assert.Error(t, err)
	_, err = ParseDate("  ")
	assert.Error(t, err)
}

func TestSaveToExcel(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"Airline", "Total"},
		{"X", "2"},
		{"Y", "1"},
	})
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, SaveToExcel(df, path, "View"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("View")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Airline", "Total"}, rows[0])
	assert.Equal(t, "Y", rows[2][0])
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]int{1, 2}, 3))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", FormatCount(0))
	assert.Equal(t, "1,234", FormatCount(1234))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}

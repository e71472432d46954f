package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

const sampleCSV = `id,satisfaction,Class,Type of Travel,Arrival Delay in Minutes
1,satisfied,Business,Business travel,5
2,neutral or dissatisfied,Eco,Personal Travel,NA
3,satisfied,,Business travel,0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadCSV(t *testing.T) {
	df, err := ReadCSV(writeFile(t, "train.csv", sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, df.Nrow())
	assert.True(t, utils.IsMissing(df.Col("Arrival Delay in Minutes").Elem(1)))
	assert.True(t, utils.IsMissing(df.Col("Class").Elem(2)))
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "survey.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"exported by ops"},
		{"satisfaction", "Class"},
		{"satisfied", "Eco"},
		{"neutral or dissatisfied", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	df, err := ReadXLSX(path, "", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"satisfaction", "Class"}, df.Names())
	assert.Equal(t, 2, df.Nrow())
	assert.True(t, utils.IsMissing(df.Col("Class").Elem(1)))

	_, err = ReadXLSX(path, "missing", 1)
	assert.ErrorIs(t, err, ErrNoSheet)
}

func TestReadTableUnsupported(t *testing.T) {
	_, err := ReadTable("survey.parquet", 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadDataset(t *testing.T) {
	_, dcfg := config.Default()
	ds, err := LoadDataset(writeFile(t, "train.csv", sampleCSV), dcfg, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.True(t, ds.Schema().ArrivalDelay)
	assert.False(t, ds.Schema().DepartureDelay)

	again, err := LoadDataset(writeFile(t, "train.csv", sampleCSV), dcfg, 42)
	require.NoError(t, err)
	for i := range ds.Records() {
		assert.Equal(t, ds.Records()[i].Airline, again.Records()[i].Airline)
		assert.Equal(t, ds.Records()[i].Year, again.Records()[i].Year)
	}
}

func TestLoadDatasetMissingFile(t *testing.T) {
	_, dcfg := config.Default()
	_, err := LoadDataset(filepath.Join(t.TempDir(), "nope.csv"), dcfg, 42)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileMonitor(t *testing.T) {
	path := writeFile(t, "train.csv", sampleCSV)
	m, err := NewFileMonitor(path)
	require.NoError(t, err)
	m.Debounce = 20 * time.Millisecond

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() { done <- m.Watch(func(name string) { changed <- name }) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV+"4,satisfied,Eco,Business travel,1\n"), 0644))

	select {
	case name := <-changed:
		assert.Equal(t, filepath.Base(path), filepath.Base(name))
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	require.NoError(t, m.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestFileMonitorSerializesBurstWrites(t *testing.T) {
	_, dcfg := config.Default()
	path := writeFile(t, "train.csv", sampleCSV)
	m, err := NewFileMonitor(path)
	require.NoError(t, err)
	m.Debounce = 30 * time.Millisecond

	var (
		mu               sync.Mutex
		running, maxSeen int
		loaded           = -1
	)
	go m.Watch(func(name string) {
		mu.Lock()
		running++
		if running > maxSeen {
			maxSeen = running
		}
		mu.Unlock()

		// 慢加载, 让后续写入在加载期间到达
		time.Sleep(100 * time.Millisecond)
		ds, err := LoadDataset(name, dcfg, 42)

		mu.Lock()
		running--
		if err == nil {
			loaded = ds.Len()
		}
		mu.Unlock()
	})
	t.Cleanup(func() { m.Close() })

	time.Sleep(20 * time.Millisecond)
	content := sampleCSV
	for i := 0; i < 5; i++ {
		content += fmt.Sprintf("%d,satisfied,Eco,Business travel,%d\n", 4+i, i)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		time.Sleep(40 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return loaded == 8 && running == 0
	}, 5*time.Second, 20*time.Millisecond)

	// 最后一次写入之后不再有回调
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 8, loaded)
}

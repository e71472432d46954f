package processor

import (
	"errors"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anu-justdidit/airline-dash-app/src/config"
)

func surveyFrame() dataframe.DataFrame {
	return dataframe.LoadRecords([][]string{
		{"id", "satisfaction", "Class", "Type of Travel", "Departure Delay in Minutes"},
		{"1", "satisfied", "Business", "Business travel", "10"},
		{"2", "neutral or dissatisfied", "Eco", "Personal Travel", "25"},
		{"3", "satisfied", "Eco Plus", "Business travel", "0"},
		{"4", "neutral or dissatisfied", "", "", ""},
		{"5", "satisfied", "Business", "Personal Travel", "3"},
	})
}

func TestAugmentIsDeterministic(t *testing.T) {
	_, dcfg := config.Default()
	aug, err := NewAugmenter(dcfg, 42)
	require.NoError(t, err)

	a := aug.Augment(surveyFrame())
	b := aug.Augment(surveyFrame())
	require.NoError(t, a.Err)
	assert.Equal(t, a.Col(AirlineColumn).Records(), b.Col(AirlineColumn).Records())
	assert.Equal(t, a.Col(FlightDateColumn).Records(), b.Col(FlightDateColumn).Records())

	start, end, err := dcfg.DateRange()
	require.NoError(t, err)
	for i := 0; i < a.Nrow(); i++ {
		assert.Contains(t, dcfg.Airlines, a.Col(AirlineColumn).Elem(i).String())
		year, err := a.Col(YearColumn).Elem(i).Int()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, year, start.Year())
		assert.LessOrEqual(t, year, end.Year())
	}
}

func TestNewDataset(t *testing.T) {
	_, dcfg := config.Default()
	aug, err := NewAugmenter(dcfg, 7)
	require.NoError(t, err)

	ds, err := NewDataset(aug.Augment(surveyFrame()), dcfg)
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())

	schema := ds.Schema()
	assert.True(t, schema.Class)
	assert.True(t, schema.TravelType)
	assert.True(t, schema.DepartureDelay)
	assert.False(t, schema.ArrivalDelay)
	assert.False(t, schema.Age)

	assert.Equal(t, []string{"Business", "Eco", "Eco Plus"}, ds.Classes())
	assert.Equal(t, []string{"Business travel", "Personal Travel"}, ds.TravelTypes())

	last := ds.Records()[3]
	assert.False(t, last.Class.Valid)
	assert.False(t, last.TravelType.Valid)
	assert.False(t, last.DepartureDelay.Valid)
	assert.Equal(t, Dissatisfied, last.Satisfaction)

	min, max := ds.YearRange()
	for _, r := range ds.Records() {
		assert.Equal(t, r.FlightDate.Year(), r.Year)
		assert.GreaterOrEqual(t, r.Year, min)
		assert.LessOrEqual(t, r.Year, max)
	}
	assert.Equal(t, min, ds.ClampYear(min-10))
	assert.Equal(t, max, ds.ClampYear(max+10))
}

func TestNewDatasetMissingSatisfaction(t *testing.T) {
	_, dcfg := config.Default()
	aug, err := NewAugmenter(dcfg, 1)
	require.NoError(t, err)

	df := dataframe.LoadRecords([][]string{
		{"Class"},
		{"Eco"},
	})
	_, err = NewDataset(aug.Augment(df), dcfg)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestNewDatasetFromRecordsEmpty(t *testing.T) {
	_, err := NewDatasetFromRecords(nil, Schema{})
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestDefaultFilters(t *testing.T) {
	var records []Record
	for _, a := range []string{"H", "G", "F", "E", "D", "C", "B", "A"} {
		records = append(records, rec(a, "Eco", 2010, "satisfied"))
	}
	ds, err := NewDatasetFromRecords(records, Schema{Class: true})
	require.NoError(t, err)

	f := ds.DefaultFilters()
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, f.Airlines)
	assert.Equal(t, []string{"Eco"}, f.Classes)
	assert.Empty(t, f.TravelTypes)
}

package processor

import (
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anu-justdidit/airline-dash-app/src/config"
)

func btsFrame() dataframe.DataFrame {
	return dataframe.LoadRecords([][]string{
		{"FlightDate", "Airline", "DepDelayMinutes", "ArrDelayMinutes", "Cancelled", "Diverted"},
		{"2024-01-01", "AA", "10", "12", "0", "0"},
		{"2024-01-02", "AA", "20", "18", "1", "0"},
		{"2024-01-03", "DL", "5", "4", "0", "1"},
		{"2024-01-03", "XX", "100", "100", "1", "1"},
		{"not-a-date", "DL", "300", "300", "1", "1"},
	})
}

func TestCleanBTS(t *testing.T) {
	_, dcfg := config.Default()
	cleaned, err := CleanBTS(btsFrame(), dcfg)
	require.NoError(t, err)
	assert.Equal(t, 3, cleaned.Nrow())
	assert.Equal(t, []string{"American Airlines", "American Airlines", "Delta Air Lines"},
		cleaned.Col(airlineNameColumn).Records())
}

func TestAggregatePerformance(t *testing.T) {
	_, dcfg := config.Default()
	cleaned, err := CleanBTS(btsFrame(), dcfg)
	require.NoError(t, err)

	perf := AggregatePerformance(cleaned)
	require.Len(t, perf, 2)
	aa := perf["American Airlines"]
	assert.Equal(t, 2, aa.Flights)
	assert.InDelta(t, 15.0, aa.DepDelay, 1e-9)
	assert.InDelta(t, 15.0, aa.ArrDelay, 1e-9)
	assert.InDelta(t, 0.5, aa.CancelRate, 1e-9)
	assert.InDelta(t, 0.0, aa.DiversionRate, 1e-9)
}

func TestAggregatePerformanceMissingColumns(t *testing.T) {
	_, dcfg := config.Default()
	bts := dataframe.LoadRecords([][]string{
		{"FlightDate", "Airline"},
		{"2024-01-01", "UA"},
	})
	cleaned, err := CleanBTS(bts, dcfg)
	require.NoError(t, err)
	perf := AggregatePerformance(cleaned)
	assert.Equal(t, 1, perf["United Airlines"].Flights)
	assert.True(t, math.IsNaN(perf["United Airlines"].DepDelay))
}

func TestMergeDelaySurvey(t *testing.T) {
	_, dcfg := config.Default()
	survey := dataframe.LoadRecords([][]string{
		{"satisfaction", "Class"},
		{"satisfied", "Business"},
		{"neutral or dissatisfied", "Business"},
		{"satisfied", "Eco"},
	})

	merged, err := MergeDelaySurvey(btsFrame(), survey, dcfg)
	require.NoError(t, err)
	assert.Equal(t, MergedColumns, merged.Names())
	require.Equal(t, 2, merged.Nrow())

	assert.Equal(t, []string{"Delta Air Lines", "American Airlines"}, merged.Col(MergedAirline).Records())
	assert.Equal(t, []string{"Business", "Business"}, merged.Col(MergedClass).Records())
	assert.Equal(t, []float64{0.5, 0.5}, merged.Col(MergedSatisfaction).Float())
	assert.Equal(t, []float64{1, 2}, merged.Col(MergedFlights).Float())
}

func TestMergeDelaySurveyRequiresClass(t *testing.T) {
	_, dcfg := config.Default()
	survey := dataframe.LoadRecords([][]string{
		{"satisfaction"},
		{"satisfied"},
	})
	_, err := MergeDelaySurvey(btsFrame(), survey, dcfg)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

package processor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(airline, class string, year int, label string) Record {
	r := Record{
		Satisfaction: NormalizeSatisfaction(label, true),
		Airline:      airline,
		Year:         year,
		FlightDate:   time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if class != "" {
		r.Class = SomeString(class)
	}
	return r
}

func exampleDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := NewDatasetFromRecords([]Record{
		rec("X", "Business", 2010, "satisfied"),
		rec("X", "Business", 2012, "neutral"),
		rec("Y", "Eco", 2015, "dissatisfied"),
	}, Schema{Class: true})
	require.NoError(t, err)
	return ds
}

func TestComputeViewExample(t *testing.T) {
	ds := exampleDataset(t)
	pb := Playback{State: Paused, Year: 2012, Interval: time.Second}

	v := ComputeView(ds, Filters{Airlines: []string{"X"}}, pb)

	assert.Equal(t, 2012, v.Year)
	assert.Equal(t, 2010, v.YearMin)
	assert.Equal(t, 2015, v.YearMax)
	assert.Len(t, v.Subset(), 2)

	assert.Equal(t, 2, v.Summary.Total)
	assert.Equal(t, 1, v.Summary.Satisfied)
	assert.Equal(t, 1, v.Summary.Dissatisfied)
	assert.InDelta(t, 50.0, v.Summary.SatisfiedPct, 1e-9)
	assert.False(t, v.Summary.AvgDepartureDelay.Valid)
	assert.False(t, v.Summary.AvgArrivalDelay.Valid)

	assert.Equal(t, []AirlineCount{{Airline: "X", Satisfied: 1, Dissatisfied: 1}}, v.Airlines)
	assert.Equal(t, []YearCount{
		{Year: 2010, Satisfied: 1},
		{Year: 2012, Dissatisfied: 1},
	}, v.Trend)
	assert.Equal(t, Split{Year: 2012, Dissatisfied: 1}, v.Split)
	assert.Equal(t, []FacetCount{{Airline: "X", Class: "Business", Dissatisfied: 1}}, v.Facets)
	assert.EqualValues(t, 1000, v.Interval)
}

func TestComputeViewFollowsPlayback(t *testing.T) {
	ds := exampleDataset(t)
	pb := NewPlayback(2010, time.Second)
	pb.Tick = 5 // 2010 + 5 % 6

	v := ComputeView(ds, Filters{Airlines: []string{"X", "Y"}}, pb)
	assert.Equal(t, 2015, v.Year)
	assert.Equal(t, Playing, v.State)
	assert.Equal(t, 3, v.Summary.Total)
	assert.Equal(t, Split{Year: 2015, Dissatisfied: 1}, v.Split)
}

func TestComputeViewEmptySubset(t *testing.T) {
	ds := exampleDataset(t)
	pb := Playback{State: Paused, Year: 2011}

	v := ComputeView(ds, Filters{}, pb)
	assert.Equal(t, 0, v.Summary.Total)
	assert.Equal(t, 0.0, v.Summary.SatisfiedPct)
	assert.Empty(t, v.Airlines)
	assert.Equal(t, []YearCount{{Year: 2011}}, v.Trend)
	assert.Equal(t, Split{Year: 2011}, v.Split)
	assert.Empty(t, v.Facets)
}

func TestViewJSON(t *testing.T) {
	ds := exampleDataset(t)
	v := ComputeView(ds, ds.DefaultFilters(), Playback{State: Paused, Year: 2015})

	b, err := json.Marshal(v)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "paused", m["state"])
	summary := m["summary"].(map[string]any)
	assert.Nil(t, summary["avg_departure_delay"])
	assert.EqualValues(t, 3, summary["total"])
	_, leaked := m["subset"]
	assert.False(t, leaked)
}

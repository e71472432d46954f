package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterCumulative(t *testing.T) {
	records := []Record{
		rec("X", "Business", 2010, "satisfied"),
		rec("X", "Business", 2012, "neutral"),
		rec("Y", "Eco", 2015, "dissatisfied"),
	}

	got := Filter(records, Selection{Filters: Filters{Airlines: []string{"X", "Y"}}, Year: 2012})
	require.Len(t, got, 2)
	for _, r := range got {
		assert.LessOrEqual(t, r.Year, 2012)
	}

	assert.Empty(t, Filter(records, Selection{Year: 2025}), "empty airline set matches nothing")
}

func TestFilterClassAndTravelType(t *testing.T) {
	noClass := rec("X", "", 2010, "satisfied")
	business := rec("X", "Business", 2010, "satisfied")
	business.TravelType = SomeString("Business travel")
	eco := rec("X", "Eco", 2010, "satisfied")
	records := []Record{noClass, business, eco}

	all := Filter(records, Selection{Filters: Filters{Airlines: []string{"X"}}, Year: 2010})
	assert.Len(t, all, 3, "empty class set imposes no constraint")

	got := Filter(records, Selection{Filters: Filters{
		Airlines: []string{"X"},
		Classes:  []string{"Business", "Eco"},
	}, Year: 2010})
	assert.Len(t, got, 2, "null class never matches a non-empty set")

	got = Filter(records, Selection{Filters: Filters{
		Airlines:    []string{"X"},
		TravelTypes: []string{"Business travel"},
	}, Year: 2010})
	require.Len(t, got, 1)
	assert.Equal(t, "Business", got[0].Class.Value)
}

func TestFilterIsMonotoneInCursor(t *testing.T) {
	var records []Record
	for y := 2006; y <= 2025; y++ {
		records = append(records, rec("X", "Eco", y, "satisfied"), rec("Y", "Eco", y, "neutral"))
	}
	f := Filters{Airlines: []string{"X", "Y"}}
	prev := 0
	for y := 2006; y <= 2025; y++ {
		n := len(Filter(records, Selection{Filters: f, Year: y}))
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}
	assert.Equal(t, len(records), prev)
}

func TestSummarizeDelays(t *testing.T) {
	a := rec("X", "Eco", 2010, "satisfied")
	a.DepartureDelay = SomeFloat(10)
	b := rec("X", "Eco", 2010, "neutral or dissatisfied")
	b.DepartureDelay = SomeFloat(20)
	c := rec("X", "Eco", 2010, "satisfied")

	s := Summarize([]Record{a, b, c}, Schema{DepartureDelay: true, ArrivalDelay: true})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, s.Total, s.Satisfied+s.Dissatisfied)
	assert.InDelta(t, 66.666, s.SatisfiedPct, 0.01)
	require.True(t, s.AvgDepartureDelay.Valid)
	assert.InDelta(t, 15.0, s.AvgDepartureDelay.Value, 1e-9)
	assert.False(t, s.AvgArrivalDelay.Valid, "all-null column is unavailable")

	s = Summarize([]Record{a}, Schema{})
	assert.False(t, s.AvgDepartureDelay.Valid, "absent column is unavailable")
}

func TestBreakdownByAirlineOrdering(t *testing.T) {
	records := []Record{
		rec("B", "Eco", 2010, "satisfied"),
		rec("A", "Eco", 2010, "satisfied"),
		rec("C", "Eco", 2010, "satisfied"),
		rec("C", "Eco", 2011, "neutral"),
	}
	got := BreakdownByAirline(records)
	assert.Equal(t, []AirlineCount{
		{Airline: "C", Satisfied: 1, Dissatisfied: 1},
		{Airline: "A", Satisfied: 1},
		{Airline: "B", Satisfied: 1},
	}, got)

	sum := 0
	for _, ac := range got {
		sum += ac.Total()
	}
	assert.Equal(t, len(records), sum)
}

func TestTrendByYear(t *testing.T) {
	records := []Record{
		rec("A", "Eco", 2012, "satisfied"),
		rec("A", "Eco", 2008, "neutral"),
		rec("A", "Eco", 2012, "neutral"),
	}
	assert.Equal(t, []YearCount{
		{Year: 2008, Dissatisfied: 1},
		{Year: 2012, Satisfied: 1, Dissatisfied: 1},
	}, TrendByYear(records, 2012))

	assert.Equal(t, []YearCount{{Year: 2019}}, TrendByYear(nil, 2019))
}

func TestSplitAndFacetUseExactYear(t *testing.T) {
	records := []Record{
		rec("A", "Eco", 2011, "satisfied"),
		rec("A", "Eco", 2012, "satisfied"),
		rec("A", "", 2012, "neutral"),
		rec("B", "Business", 2012, "dissatisfied"),
	}
	assert.Equal(t, Split{Year: 2012, Satisfied: 1, Dissatisfied: 2}, SplitForYear(records, 2012))
	assert.Equal(t, []FacetCount{
		{Airline: "A", Class: UnknownClass, Dissatisfied: 1},
		{Airline: "A", Class: "Eco", Satisfied: 1},
		{Airline: "B", Class: "Business", Dissatisfied: 1},
	}, FacetByAirlineClass(records, 2012))
	assert.Len(t, ForYear(records, 2011), 1)
}

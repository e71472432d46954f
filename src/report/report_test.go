package report

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/anu-justdidit/airline-dash-app/src/datasource/file"
	"github.com/anu-justdidit/airline-dash-app/src/processor"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func dashboardView() processor.View {
	return processor.View{
		Year: 2011,
		Airlines: []processor.AirlineCount{
			{Airline: "IndiGo", Satisfied: 2, Dissatisfied: 1},
			{Airline: "Vistara", Satisfied: 0, Dissatisfied: 1},
		},
		Trend: []processor.YearCount{
			{Year: 2010, Satisfied: 1, Dissatisfied: 0},
			{Year: 2011, Satisfied: 1, Dissatisfied: 2},
		},
		Split: processor.Split{Year: 2011, Satisfied: 1, Dissatisfied: 2},
		Facets: []processor.FacetCount{
			{Airline: "IndiGo", Class: "Business", Satisfied: 1, Dissatisfied: 0},
			{Airline: "IndiGo", Class: "Eco", Satisfied: 0, Dissatisfied: 1},
		},
	}
}

func TestDashboardChartsRenderPNG(t *testing.T) {
	empty := processor.View{
		Year:  2006,
		Trend: []processor.YearCount{{Year: 2006}},
		Split: processor.Split{Year: 2006},
	}
	assert.Equal(t, []string{"airlines", "facets", "split", "trend"}, ChartNames())

	for _, name := range ChartNames() {
		for _, v := range []processor.View{dashboardView(), empty} {
			var buf bytes.Buffer
			require.NoError(t, Dashboard[name](&buf, v), name)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), name)
		}
	}
}

func TestTrendSinglePoint(t *testing.T) {
	v := dashboardView()
	v.Trend = v.Trend[:1]
	var buf bytes.Buffer
	require.NoError(t, RenderTrend(&buf, v))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderFailureStillWritesBlank(t *testing.T) {
	var buf bytes.Buffer
	err := renderOrBlank(&buf, true, func(io.Writer) error { return errors.New("bad range") })
	require.ErrorIs(t, err, ErrRender)
	assert.Contains(t, err.Error(), "bad range")
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, renderOrBlank(&buf, false, func(io.Writer) error { return errors.New("not called") }))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestTitles(t *testing.T) {
	assert.Equal(t, "Top Airlines by Satisfaction (≤ 2011)", AirlinesTitle(2011))
	assert.Equal(t, "Yearly Satisfaction Trend (≤ 2011)", TrendTitle(2011))
	assert.Equal(t, "Satisfaction Split - Year 2011", SplitTitle(2011))
}

func mergedFrame() dataframe.DataFrame {
	return dataframe.LoadRecords([][]string{
		processor.MergedColumns,
		{"Delta Air Lines", "Business", "0.5", "4", "10", "12.5", "8.0", "0.1", "0"},
		{"American Airlines", "Business", "0.5", "4", "8", "20.0", "15.5", "0.25", "0.125"},
		{"Southwest Airlines", "Eco", "0.2", "6", "12", "5.0", "NaN", "0", "0"},
	})
}

func TestRenderStatic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "figures")
	paths, err := RenderStatic(mergedFrame(), dir)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), p)
	}
	assert.FileExists(t, filepath.Join(dir, SatisfactionVsDelayPNG))
}

func TestRenderStaticRejectsBadInput(t *testing.T) {
	df := dataframe.LoadRecords([][]string{{"Airline"}, {"Delta Air Lines"}})
	_, err := RenderStatic(df, t.TempDir())
	assert.ErrorIs(t, err, processor.ErrMissingColumn)

	empty := dataframe.LoadRecords([][]string{processor.MergedColumns})
	_, err = RenderStatic(empty, t.TempDir())
	assert.Error(t, err)
}

func TestCorrelationMatrix(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"name", "a", "b", "c"},
		{"w", "1", "2", "4"},
		{"x", "2", "4", "3"},
		{"y", "3", "NaN", "2"},
		{"z", "4", "8", "1"},
	})
	c := CorrelationMatrix(df)
	require.Equal(t, []string{"a", "b", "c"}, c.Names)
	assert.InDelta(t, 1, c.Matrix[0][0], 1e-9)
	assert.InDelta(t, 1, c.Matrix[0][1], 1e-9)
	assert.InDelta(t, -1, c.Matrix[0][2], 1e-9)
	assert.Equal(t, c.Matrix[1][2], c.Matrix[2][1])
}

func TestCorrelationOfMergedData(t *testing.T) {
	c := CorrelationMatrix(mergedFrame())
	assert.NotContains(t, c.Names, processor.MergedAirline)
	assert.NotContains(t, c.Names, processor.MergedClass)
	assert.Contains(t, c.Names, processor.MergedArrDelay)
}

func TestWriteCorrelation(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteCorrelation(CorrelationMatrix(mergedFrame()), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, CorrelationXLSX), filepath.Join(dir, CorrelationCSV)}, paths)

	f, err := excelize.OpenFile(paths[0])
	require.NoError(t, err)
	defer f.Close()
	header, err := f.GetCellValue("Correlation", "B1")
	require.NoError(t, err)
	assert.Equal(t, processor.MergedSatisfaction, header)
	formats, err := f.GetConditionalFormats("Correlation")
	require.NoError(t, err)
	assert.Len(t, formats, 1)

	csv, err := file.ReadCSV(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "Variable", csv.Names()[0])
	assert.Equal(t, csv.Nrow()+1, csv.Ncol())

	_, err = WriteCorrelation(Correlation{}, dir)
	assert.Error(t, err)
}

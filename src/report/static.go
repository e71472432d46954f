package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/anu-justdidit/airline-dash-app/src/processor"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

// 静态图表文件名
const (
	SatisfactionByAirlinePNG = "satisfaction_by_airline.png"
	ArrivalDelayByAirlinePNG = "arrival_delay_by_airline.png"
	SatisfactionVsDelayPNG   = "satisfaction_vs_delay.png"
	CancellationRatePNG      = "cancellation_rate.png"
)

// mergedRow 合并结果中的一行, 数值列解析失败为NaN
type mergedRow struct {
	Airline      string
	Class        string
	Satisfaction float64
	ArrDelay     float64
	CancelRate   float64
}

func mergedRows(merged dataframe.DataFrame) ([]mergedRow, error) {
	for _, col := range []string{processor.MergedAirline, processor.MergedSatisfaction, processor.MergedArrDelay, processor.MergedCancelRate} {
		if !utils.HasColumn(merged, col) {
			return nil, fmt.Errorf("%w: %s", processor.ErrMissingColumn, col)
		}
	}

	airline := merged.Col(processor.MergedAirline)
	sat := merged.Col(processor.MergedSatisfaction).Float()
	arr := merged.Col(processor.MergedArrDelay).Float()
	cancel := merged.Col(processor.MergedCancelRate).Float()
	var class []string
	if utils.HasColumn(merged, processor.MergedClass) {
		class = merged.Col(processor.MergedClass).Records()
	}

	rows := make([]mergedRow, merged.Nrow())
	for i := range rows {
		rows[i] = mergedRow{
			Airline:      airline.Elem(i).String(),
			Satisfaction: sat[i],
			ArrDelay:     arr[i],
			CancelRate:   cancel[i],
		}
		if class != nil {
			rows[i].Class = class[i]
		}
	}
	return rows, nil
}

// RenderStatic 根据合并结果生成四张静态图表, 返回写出的文件路径
func RenderStatic(merged dataframe.DataFrame, dir string) ([]string, error) {
	rows, err := mergedRows(merged)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, processor.ErrEmptyDataset
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建图表目录失败: %w", err)
	}

	plots := []struct {
		name   string
		render func([]mergedRow) (*bytes.Buffer, error)
	}{
		{SatisfactionByAirlinePNG, satisfactionByAirline},
		{ArrivalDelayByAirlinePNG, arrivalDelayByAirline},
		{SatisfactionVsDelayPNG, satisfactionVsDelay},
		{CancellationRatePNG, cancellationRate},
	}

	paths := make([]string, 0, len(plots))
	for _, p := range plots {
		buf, err := p.render(rows)
		if err != nil {
			return paths, fmt.Errorf("渲染 %s 失败: %w", p.name, err)
		}
		path := filepath.Join(dir, p.name)
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return paths, fmt.Errorf("写入 %s 失败: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func barLabel(r mergedRow) string {
	if r.Class == "" {
		return r.Airline
	}
	return fmt.Sprintf("%s (%s)", r.Airline, r.Class)
}

func barChart(title, yName string, rows []mergedRow, value func(mergedRow) float64, fill drawing.Color) (*bytes.Buffer, error) {
	bars := make([]chart.Value, 0, len(rows))
	for _, r := range rows {
		v := value(r)
		if math.IsNaN(v) {
			v = 0
		}
		bars = append(bars, chart.Value{
			Label: barLabel(r),
			Value: v,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		})
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      chartWidth + 320,
		Height:     chartHeight,
		BarWidth:   48,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Name: yName},
		Bars:       bars,
	}

	var buf bytes.Buffer
	if err := renderOrBlank(&buf, anyPositive(barValues(bars)), func(w io.Writer) error {
		return bc.Render(chart.PNG, w)
	}); err != nil {
		return nil, err
	}
	return &buf, nil
}

func satisfactionByAirline(rows []mergedRow) (*bytes.Buffer, error) {
	return barChart("Customer Satisfaction by Airline", "Satisfaction Score (%)", rows,
		func(r mergedRow) float64 { return r.Satisfaction * 100 }, drawing.ColorFromHex("1f77b4"))
}

func arrivalDelayByAirline(rows []mergedRow) (*bytes.Buffer, error) {
	return barChart("Average Arrival Delay by Airline", "Minutes", rows,
		func(r mergedRow) float64 { return r.ArrDelay }, drawing.ColorFromHex("ff7f0e"))
}

func cancellationRate(rows []mergedRow) (*bytes.Buffer, error) {
	return barChart("Flight Cancellation Rate by Airline", "Cancellation Rate (%)", rows,
		func(r mergedRow) float64 { return r.CancelRate * 100 }, drawing.ColorFromHex("d62728"))
}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{StrokeWidth: chart.Disabled, DotWidth: 6, DotColor: col}
}

// satisfactionVsDelay 散点图, 每个点标注航司
func satisfactionVsDelay(rows []mergedRow) (*bytes.Buffer, error) {
	var xs, ys []float64
	var notes []chart.Value2
	for _, r := range rows {
		if math.IsNaN(r.ArrDelay) || math.IsNaN(r.Satisfaction) {
			continue
		}
		xs = append(xs, r.ArrDelay)
		ys = append(ys, r.Satisfaction*100)
		notes = append(notes, chart.Value2{XValue: r.ArrDelay, YValue: r.Satisfaction * 100, Label: r.Airline})
	}
	if len(xs) == 1 {
		// 单点时X轴范围为零
		xs = append(xs, xs[0]+1)
		ys = append(ys, ys[0])
	}

	ch := chart.Chart{
		Title:      "Satisfaction vs Arrival Delay",
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Average Arrival Delay (minutes)"},
		YAxis:      chart.YAxis{Name: "Satisfaction Score (%)", Range: &chart.ContinuousRange{Min: 0, Max: 100}},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "airlines", XValues: xs, YValues: ys, Style: pointStyle(chart.ColorBlue)},
			chart.AnnotationSeries{Annotations: notes},
		},
	}

	var buf bytes.Buffer
	if err := renderOrBlank(&buf, len(xs) > 0, func(w io.Writer) error {
		return ch.Render(chart.PNG, w)
	}); err != nil {
		return nil, err
	}
	return &buf, nil
}

func barValues(bars []chart.Value) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Value
	}
	return out
}

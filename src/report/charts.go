package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/anu-justdidit/airline-dash-app/src/processor"
)

const (
	chartWidth  = 960
	chartHeight = 480
	// 堆叠柱状图最多展示的航司数量
	maxAirlineBars = 10
)

var (
	colorSatisfied    = drawing.ColorFromHex("2ca02c")
	colorDissatisfied = drawing.ColorFromHex("d62728")
)

// Renderer 把视图渲染为PNG
type Renderer func(w io.Writer, v processor.View) error

// Dashboard 看板图表, 键为 /charts/{name}.png 中的名称
var Dashboard = map[string]Renderer{
	"airlines": RenderAirlines,
	"trend":    RenderTrend,
	"split":    RenderSplit,
	"facets":   RenderFacets,
}

// ChartNames 看板图表名称, 有序
func ChartNames() []string {
	names := make([]string, 0, len(Dashboard))
	for name := range Dashboard {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func AirlinesTitle(year int) string { return fmt.Sprintf("Top Airlines by Satisfaction (≤ %d)", year) }
func TrendTitle(year int) string    { return fmt.Sprintf("Yearly Satisfaction Trend (≤ %d)", year) }
func SplitTitle(year int) string    { return fmt.Sprintf("Satisfaction Split - Year %d", year) }
func FacetsTitle(year int) string {
	return fmt.Sprintf("Satisfaction per Class - Airline Panels (Year %d)", year)
}

func labelStyle(l processor.Label) chart.Style {
	c := colorDissatisfied
	if l == processor.Satisfied {
		c = colorSatisfied
	}
	return chart.Style{FillColor: c, StrokeColor: c}
}

// RenderAirlines 按航司堆叠的满意/不满意柱状图
func RenderAirlines(w io.Writer, v processor.View) error {
	airlines := v.Airlines
	if len(airlines) > maxAirlineBars {
		airlines = airlines[:maxAirlineBars]
	}

	bars := make([]chart.StackedBar, 0, len(airlines))
	for _, a := range airlines {
		bars = append(bars, chart.StackedBar{
			Name: a.Airline,
			Values: []chart.Value{
				{Label: string(processor.Satisfied), Value: float64(a.Satisfied), Style: labelStyle(processor.Satisfied)},
				{Label: string(processor.Dissatisfied), Value: float64(a.Dissatisfied), Style: labelStyle(processor.Dissatisfied)},
			},
		})
	}

	sbc := chart.StackedBarChart{
		Title:      AirlinesTitle(v.Year),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}
	return renderOrBlank(w, len(bars) > 0 && anyPositive(airlineTotals(airlines)), func(buf io.Writer) error {
		return sbc.Render(chart.PNG, buf)
	})
}

// RenderTrend 逐年满意/不满意数量折线图
func RenderTrend(w io.Writer, v processor.View) error {
	xs := make([]float64, 0, len(v.Trend))
	sat := make([]float64, 0, len(v.Trend))
	dis := make([]float64, 0, len(v.Trend))
	for _, yc := range v.Trend {
		xs = append(xs, float64(yc.Year))
		sat = append(sat, float64(yc.Satisfied))
		dis = append(dis, float64(yc.Dissatisfied))
	}
	// 单个点时补齐到两个X值, 否则坐标范围为零
	if len(xs) == 1 {
		xs = append(xs, xs[0]+1)
		sat = append(sat, sat[0])
		dis = append(dis, dis[0])
	}

	ch := chart.Chart{
		Title:      TrendTitle(v.Year),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Year",
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v.(float64)) },
		},
		YAxis: chart.YAxis{Name: "Count"},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: string(processor.Satisfied), XValues: xs, YValues: sat,
				Style: chart.Style{StrokeColor: colorSatisfied, StrokeWidth: 2}},
			chart.ContinuousSeries{Name: string(processor.Dissatisfied), XValues: xs, YValues: dis,
				Style: chart.Style{StrokeColor: colorDissatisfied, StrokeWidth: 2}},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return renderOrBlank(w, anyPositive(sat) || anyPositive(dis), func(buf io.Writer) error {
		return ch.Render(chart.PNG, buf)
	})
}

// RenderSplit 当年满意度饼图
func RenderSplit(w io.Writer, v processor.View) error {
	pie := chart.PieChart{
		Title:  SplitTitle(v.Year),
		Width:  chartHeight,
		Height: chartHeight,
		Values: []chart.Value{
			{Label: string(processor.Satisfied), Value: float64(v.Split.Satisfied), Style: labelStyle(processor.Satisfied)},
			{Label: string(processor.Dissatisfied), Value: float64(v.Split.Dissatisfied), Style: labelStyle(processor.Dissatisfied)},
		},
	}
	return renderOrBlank(w, v.Split.Satisfied+v.Split.Dissatisfied > 0, func(buf io.Writer) error {
		return pie.Render(chart.PNG, buf)
	})
}

// RenderFacets 当年各航司各舱位的满意度堆叠柱, 每根柱为 "航司 / 舱位"
func RenderFacets(w io.Writer, v processor.View) error {
	bars := make([]chart.StackedBar, 0, len(v.Facets))
	totals := make([]float64, 0, len(v.Facets))
	for _, fc := range v.Facets {
		bars = append(bars, chart.StackedBar{
			Name: fmt.Sprintf("%s / %s", fc.Airline, fc.Class),
			Values: []chart.Value{
				{Label: string(processor.Satisfied), Value: float64(fc.Satisfied), Style: labelStyle(processor.Satisfied)},
				{Label: string(processor.Dissatisfied), Value: float64(fc.Dissatisfied), Style: labelStyle(processor.Dissatisfied)},
			},
		})
		totals = append(totals, float64(fc.Satisfied+fc.Dissatisfied))
	}

	sbc := chart.StackedBarChart{
		Title:      FacetsTitle(v.Year),
		Width:      chartWidth + 320,
		Height:     chartHeight,
		BarSpacing: 8,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}
	return renderOrBlank(w, anyPositive(totals), func(buf io.Writer) error {
		return sbc.Render(chart.PNG, buf)
	})
}

// ErrRender 图表渲染失败, 此时已输出空白图代替
var ErrRender = errors.New("图表渲染失败")

// renderOrBlank 没有数据或渲染失败时输出空白图, 页面不会出现破图
// 渲染失败仍返回包装了 ErrRender 的错误, 调用方据此记录日志
func renderOrBlank(w io.Writer, hasData bool, render func(io.Writer) error) error {
	if !hasData {
		return blank(w, chartWidth, chartHeight)
	}
	var buf bytes.Buffer
	err := render(&buf)
	if err == nil {
		_, err = w.Write(buf.Bytes())
		return err
	}
	if berr := blank(w, chartWidth, chartHeight); berr != nil {
		return berr
	}
	return fmt.Errorf("%w: %v", ErrRender, err)
}

func blank(w io.Writer, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	return png.Encode(w, img)
}

func airlineTotals(airlines []processor.AirlineCount) []float64 {
	out := make([]float64, len(airlines))
	for i, a := range airlines {
		out[i] = float64(a.Total())
	}
	return out
}

func anyPositive(vals []float64) bool {
	for _, v := range vals {
		if v > 0 {
			return true
		}
	}
	return false
}

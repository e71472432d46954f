package web

import (
	"fmt"
	"strconv"

	"github.com/anu-justdidit/airline-dash-app/src/processor"
	"github.com/anu-justdidit/airline-dash-app/src/report"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

// Tile 一个指标卡片
type Tile struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Sub   string `json:"sub,omitempty"`
}

// BuildTiles 服务端格式化的指标卡片
func BuildTiles(v processor.View) []Tile {
	s := v.Summary
	return []Tile{
		{Label: "Total Records (≤ year)", Value: utils.FormatCount(s.Total)},
		{
			Label: "Satisfied %",
			Value: fmt.Sprintf("%.1f%%", s.SatisfiedPct),
			Sub:   fmt.Sprintf("%s sat / %s unsat", utils.FormatCount(s.Satisfied), utils.FormatCount(s.Dissatisfied)),
		},
		{Label: "Avg Dep Delay (min)", Value: delayText(s.AvgDepartureDelay)},
		{Label: "Avg Arr Delay (min)", Value: delayText(s.AvgArrivalDelay)},
		{Label: "Current Year", Value: strconv.Itoa(v.Year)},
	}
}

func delayText(o processor.OptionalFloat) string {
	if !o.Valid {
		return "-"
	}
	return fmt.Sprintf("%.1f", o.Value)
}

// viewPayload 视图加上展示用的派生数据
type viewPayload struct {
	processor.View
	Tiles  []Tile            `json:"tiles"`
	Titles map[string]string `json:"titles"`
	Label  string            `json:"label"`
}

func newViewPayload(v processor.View) viewPayload {
	return viewPayload{
		View:  v,
		Tiles: BuildTiles(v),
		Titles: map[string]string{
			"airlines": report.AirlinesTitle(v.Year),
			"trend":    report.TrendTitle(v.Year),
			"split":    report.SplitTitle(v.Year),
			"facets":   report.FacetsTitle(v.Year),
		},
		Label: fmt.Sprintf("Current Year: %d", v.Year),
	}
}

func viewMessage(v processor.View) Message {
	return Message{Type: "view", Data: newViewPayload(v)}
}

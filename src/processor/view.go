package processor

import "time"

// View 一次交互后看板需要的全部数据
type View struct {
	Year      int            `json:"year"`
	YearMin   int            `json:"year_min"`
	YearMax   int            `json:"year_max"`
	State     State          `json:"state"`
	Interval  int64          `json:"interval_ms"`
	Filters   Filters        `json:"filters"`
	Summary   Summary        `json:"summary"`
	Airlines  []AirlineCount `json:"airlines"`
	Trend     []YearCount    `json:"trend"`
	Split     Split          `json:"split"`
	Facets    []FacetCount   `json:"facets"`
	Schema    Schema         `json:"schema"`
	subset    []Record
	generated time.Time
}

// Subset 返回累计筛选后的记录, 供导出使用
func (v View) Subset() []Record { return v.subset }

// ComputeView 纯函数: 根据数据集、筛选条件和播放状态计算一次完整视图
func ComputeView(ds *Dataset, f Filters, pb Playback) View {
	min, max := ds.YearRange()
	year := pb.DisplayedYear(min, max)

	subset := Filter(ds.Records(), Selection{Filters: f, Year: year})
	current := ForYear(subset, year)

	return View{
		Year:      year,
		YearMin:   min,
		YearMax:   max,
		State:     pb.State,
		Interval:  pb.Interval.Milliseconds(),
		Filters:   f,
		Summary:   Summarize(subset, ds.Schema()),
		Airlines:  BreakdownByAirline(subset),
		Trend:     TrendByYear(subset, year),
		Split:     SplitForYear(current, year),
		Facets:    FacetByAirlineClass(current, year),
		Schema:    ds.Schema(),
		subset:    subset,
		generated: time.Now(),
	}
}

// GeneratedAt 视图计算时间
func (v View) GeneratedAt() time.Time { return v.generated }

package processor

import "sort"

// Summary 汇总指标
type Summary struct {
	Total             int           `json:"total"`
	Satisfied         int           `json:"satisfied"`
	Dissatisfied      int           `json:"dissatisfied"`
	SatisfiedPct      float64       `json:"satisfied_pct"`
	AvgDepartureDelay OptionalFloat `json:"avg_departure_delay"`
	AvgArrivalDelay   OptionalFloat `json:"avg_arrival_delay"`
}

// AirlineCount 单个航司的满意/不满意计数
type AirlineCount struct {
	Airline      string `json:"airline"`
	Satisfied    int    `json:"satisfied"`
	Dissatisfied int    `json:"dissatisfied"`
}

func (a AirlineCount) Total() int { return a.Satisfied + a.Dissatisfied }

// YearCount 单个年份的满意/不满意计数
type YearCount struct {
	Year         int `json:"year"`
	Satisfied    int `json:"satisfied"`
	Dissatisfied int `json:"dissatisfied"`
}

// Split 单一年份的满意度占比
type Split struct {
	Year         int `json:"year"`
	Satisfied    int `json:"satisfied"`
	Dissatisfied int `json:"dissatisfied"`
}

// FacetCount 分面直方图的一个格子: 航司 x 舱位 x 满意度
type FacetCount struct {
	Airline      string `json:"airline"`
	Class        string `json:"class"`
	Satisfied    int    `json:"satisfied"`
	Dissatisfied int    `json:"dissatisfied"`
}

// UnknownClass 舱位为空时分面图使用的占位名称
const UnknownClass = "(unknown)"

// Summarize 计算总数、满意占比和平均延误
// 平均延误在列缺失或全部为空时为无效值
func Summarize(records []Record, schema Schema) Summary {
	var s Summary
	var dep, arr meanAcc
	for _, r := range records {
		s.Total++
		if r.Satisfaction == Satisfied {
			s.Satisfied++
		} else {
			s.Dissatisfied++
		}
		dep.add(r.DepartureDelay)
		arr.add(r.ArrivalDelay)
	}

	denom := s.Satisfied + s.Dissatisfied
	if denom < 1 {
		denom = 1
	}
	s.SatisfiedPct = float64(s.Satisfied) / float64(denom) * 100

	if schema.DepartureDelay {
		s.AvgDepartureDelay = dep.mean()
	}
	if schema.ArrivalDelay {
		s.AvgArrivalDelay = arr.mean()
	}
	return s
}

// BreakdownByAirline 按航司分组计数, 按总数降序(同数按名称升序)
func BreakdownByAirline(records []Record) []AirlineCount {
	idx := make(map[string]int)
	var out []AirlineCount
	for _, r := range records {
		i, ok := idx[r.Airline]
		if !ok {
			i = len(out)
			idx[r.Airline] = i
			out = append(out, AirlineCount{Airline: r.Airline})
		}
		if r.Satisfaction == Satisfied {
			out[i].Satisfied++
		} else {
			out[i].Dissatisfied++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total() != out[j].Total() {
			return out[i].Total() > out[j].Total()
		}
		return out[i].Airline < out[j].Airline
	})
	return out
}

// TrendByYear 按年份升序的计数序列
// 没有记录时返回游标年份的一个全零占位点
func TrendByYear(records []Record, cursor int) []YearCount {
	if len(records) == 0 {
		return []YearCount{{Year: cursor}}
	}

	byYear := make(map[int]*YearCount)
	for _, r := range records {
		yc, ok := byYear[r.Year]
		if !ok {
			yc = &YearCount{Year: r.Year}
			byYear[r.Year] = yc
		}
		if r.Satisfaction == Satisfied {
			yc.Satisfied++
		} else {
			yc.Dissatisfied++
		}
	}

	out := make([]YearCount, 0, len(byYear))
	for _, yc := range byYear {
		out = append(out, *yc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// SplitForYear 只统计年份恰好等于 year 的记录
func SplitForYear(records []Record, year int) Split {
	s := Split{Year: year}
	for _, r := range records {
		if r.Year != year {
			continue
		}
		if r.Satisfaction == Satisfied {
			s.Satisfied++
		} else {
			s.Dissatisfied++
		}
	}
	return s
}

// FacetByAirlineClass 当年各航司各舱位的满意度计数, 按航司、舱位排序
func FacetByAirlineClass(records []Record, year int) []FacetCount {
	type key struct{ airline, class string }
	cells := make(map[key]*FacetCount)
	for _, r := range records {
		if r.Year != year {
			continue
		}
		class := UnknownClass
		if r.Class.Valid {
			class = r.Class.Value
		}
		k := key{r.Airline, class}
		fc, ok := cells[k]
		if !ok {
			fc = &FacetCount{Airline: r.Airline, Class: class}
			cells[k] = fc
		}
		if r.Satisfaction == Satisfied {
			fc.Satisfied++
		} else {
			fc.Dissatisfied++
		}
	}

	out := make([]FacetCount, 0, len(cells))
	for _, fc := range cells {
		out = append(out, *fc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Airline != out[j].Airline {
			return out[i].Airline < out[j].Airline
		}
		return out[i].Class < out[j].Class
	})
	return out
}

type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v OptionalFloat) {
	if v.Valid {
		m.sum += v.Value
		m.n++
	}
}

func (m meanAcc) mean() OptionalFloat {
	if m.n == 0 {
		return OptionalFloat{}
	}
	return SomeFloat(m.sum / float64(m.n))
}

package processor

// Filters 用户在看板上选择的筛选条件
type Filters struct {
	Airlines    []string `json:"airlines"`
	Classes     []string `json:"classes"`
	TravelTypes []string `json:"travel_types"`
}

// Selection 筛选条件加当前游标年份
type Selection struct {
	Filters
	Year int `json:"year"`
}

// Filter 返回截至游标年份(含)的累计记录:
// 航司必须在所选集合中; 舱位、出行类型集合为空时不做限制;
// 非空集合不匹配空值
func Filter(records []Record, sel Selection) []Record {
	airlines := toSet(sel.Airlines)
	classes := toSet(sel.Classes)
	travel := toSet(sel.TravelTypes)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Year > sel.Year {
			continue
		}
		if !airlines[r.Airline] {
			continue
		}
		if len(classes) > 0 && !(r.Class.Valid && classes[r.Class.Value]) {
			continue
		}
		if len(travel) > 0 && !(r.TravelType.Valid && travel[r.TravelType.Value]) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ForYear 只保留年份恰好等于 year 的记录
func ForYear(records []Record, year int) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

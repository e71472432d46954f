package processor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

var (
	ErrMissingColumn = errors.New("缺少必需列")
	ErrEmptyDataset  = errors.New("数据集为空")
)

// defaultAirlineSelection 首次打开看板时默认选中的航司数量
const defaultAirlineSelection = 6

// Dataset 只读的问卷数据句柄, 启动时构建一次, 之后只共享读取
type Dataset struct {
	records     []Record
	schema      Schema
	yearMin     int
	yearMax     int
	airlines    []string
	classes     []string
	travelTypes []string
	loadedAt    time.Time
}

// NewDataset 从已增强(含 Airline / Flight Date / Year 列)的DataFrame构建数据集
func NewDataset(df dataframe.DataFrame, dcfg *config.DataConfig) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("读取数据失败: %w", df.Err)
	}

	satCol := dcfg.Column(config.ColSatisfaction)
	for _, required := range []string{satCol, AirlineColumn, FlightDateColumn, YearColumn} {
		if !utils.HasColumn(df, required) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	optional := map[string]string{
		config.ColClass:          dcfg.Column(config.ColClass),
		config.ColTravelType:     dcfg.Column(config.ColTravelType),
		config.ColFlightDistance: dcfg.Column(config.ColFlightDistance),
		config.ColAge:            dcfg.Column(config.ColAge),
		config.ColDepartureDelay: dcfg.Column(config.ColDepartureDelay),
		config.ColArrivalDelay:   dcfg.Column(config.ColArrivalDelay),
	}
	headers := make([]string, 0, len(optional))
	for _, h := range optional {
		headers = append(headers, h)
	}
	df, present := utils.EnsureColumns(df, headers...)

	schema := Schema{
		Class:          present[optional[config.ColClass]],
		TravelType:     present[optional[config.ColTravelType]],
		FlightDistance: present[optional[config.ColFlightDistance]],
		Age:            present[optional[config.ColAge]],
		DepartureDelay: present[optional[config.ColDepartureDelay]],
		ArrivalDelay:   present[optional[config.ColArrivalDelay]],
	}

	var (
		sat      = df.Col(satCol)
		airline  = df.Col(AirlineColumn)
		date     = df.Col(FlightDateColumn)
		year     = df.Col(YearColumn)
		class    = df.Col(optional[config.ColClass])
		travel   = df.Col(optional[config.ColTravelType])
		distance = df.Col(optional[config.ColFlightDistance])
		age      = df.Col(optional[config.ColAge])
		depDelay = df.Col(optional[config.ColDepartureDelay])
		arrDelay = df.Col(optional[config.ColArrivalDelay])
	)

	records := make([]Record, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		flightDate, err := utils.ParseDate(date.Elem(i).String())
		if err != nil {
			return nil, fmt.Errorf("第%d行航班日期错误: %w", i+1, err)
		}
		y, err := year.Elem(i).Int()
		if err != nil {
			y = flightDate.Year()
		}

		satElem := sat.Elem(i)
		rec := Record{
			Satisfaction:   NormalizeSatisfaction(satElem.String(), !utils.IsMissing(satElem)),
			Airline:        airline.Elem(i).String(),
			FlightDate:     flightDate,
			Year:           y,
			Class:          optionalString(class.Elem(i).String(), utils.IsMissing(class.Elem(i))),
			TravelType:     optionalString(travel.Elem(i).String(), utils.IsMissing(travel.Elem(i))),
			FlightDistance: optionalFloat(utils.ParseFloat(distance.Elem(i))),
			Age:            optionalFloat(utils.ParseFloat(age.Elem(i))),
			DepartureDelay: optionalFloat(utils.ParseFloat(depDelay.Elem(i))),
			ArrivalDelay:   optionalFloat(utils.ParseFloat(arrDelay.Elem(i))),
		}
		records = append(records, rec)
	}

	return NewDatasetFromRecords(records, schema)
}

// NewDatasetFromRecords 直接由记录构建数据集, 记录切片归数据集所有
func NewDatasetFromRecords(records []Record, schema Schema) (*Dataset, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	ds := &Dataset{
		records:  records,
		schema:   schema,
		yearMin:  records[0].Year,
		yearMax:  records[0].Year,
		loadedAt: time.Now(),
	}

	airlines := make(map[string]bool)
	classes := make(map[string]bool)
	travel := make(map[string]bool)
	for _, r := range records {
		if r.Year < ds.yearMin {
			ds.yearMin = r.Year
		}
		if r.Year > ds.yearMax {
			ds.yearMax = r.Year
		}
		airlines[r.Airline] = true
		if r.Class.Valid {
			classes[r.Class.Value] = true
		}
		if r.TravelType.Valid {
			travel[r.TravelType.Value] = true
		}
	}
	ds.airlines = sortedKeys(airlines)
	ds.classes = sortedKeys(classes)
	ds.travelTypes = sortedKeys(travel)
	return ds, nil
}

// Records 返回全部记录, 调用方不得修改
func (ds *Dataset) Records() []Record { return ds.records }
func (ds *Dataset) Len() int          { return len(ds.records) }
func (ds *Dataset) Schema() Schema    { return ds.schema }
func (ds *Dataset) LoadedAt() time.Time {
	return ds.loadedAt
}

// YearRange 返回观测到的最小和最大年份
func (ds *Dataset) YearRange() (int, int) { return ds.yearMin, ds.yearMax }

// Airlines 排序后的航司选项
func (ds *Dataset) Airlines() []string { return append([]string(nil), ds.airlines...) }

// Classes 排序后的舱位选项(不含空值)
func (ds *Dataset) Classes() []string { return append([]string(nil), ds.classes...) }

// TravelTypes 排序后的出行类型选项(不含空值)
func (ds *Dataset) TravelTypes() []string { return append([]string(nil), ds.travelTypes...) }

// DefaultFilters 看板初始筛选: 前六个航司, 全部舱位, 全部出行类型
func (ds *Dataset) DefaultFilters() Filters {
	n := defaultAirlineSelection
	if len(ds.airlines) < n {
		n = len(ds.airlines)
	}
	return Filters{
		Airlines:    append([]string(nil), ds.airlines[:n]...),
		Classes:     ds.Classes(),
		TravelTypes: ds.TravelTypes(),
	}
}

// ClampYear 将年份限制在观测范围内
func (ds *Dataset) ClampYear(y int) int {
	if y < ds.yearMin {
		return ds.yearMin
	}
	if y > ds.yearMax {
		return ds.yearMax
	}
	return y
}

func optionalString(v string, missing bool) OptionalString {
	if missing {
		return OptionalString{}
	}
	return SomeString(strings.TrimSpace(v))
}

func optionalFloat(v float64, ok bool) OptionalFloat {
	if !ok {
		return OptionalFloat{}
	}
	return SomeFloat(v)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

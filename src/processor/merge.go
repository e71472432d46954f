package processor

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

// BTS 准点数据中用到的列
const (
	BTSFlightDate = "FlightDate"
	BTSAirline    = "Airline"
	BTSOrigin     = "Origin"
	BTSDest       = "Dest"
	BTSDepDelay   = "DepDelayMinutes"
	BTSArrDelay   = "ArrDelayMinutes"
	BTSCancelled  = "Cancelled"
	BTSDiverted   = "Diverted"
)

// BTSColumns 抓取后保留的列, 按输出顺序
var BTSColumns = []string{BTSFlightDate, BTSAirline, BTSOrigin, BTSDest, BTSDepDelay, BTSArrDelay, BTSCancelled, BTSDiverted}

// 合并结果的列
const (
	MergedAirline       = "Airline"
	MergedClass         = "Airline_Class"
	MergedSatisfaction  = "Avg_Satisfaction_Score"
	MergedSurveys       = "Total_Surveys"
	MergedFlights       = "Total_Flights"
	MergedDepDelay      = "Avg_Departure_Delay"
	MergedArrDelay      = "Avg_Arrival_Delay"
	MergedCancelRate    = "Cancellation_Rate"
	MergedDiversionRate = "Diversion_Rate"
	airlineNameColumn   = "Airline_Name"
)

// MergedColumns 合并结果的列顺序
var MergedColumns = []string{
	MergedAirline, MergedClass, MergedSatisfaction, MergedSurveys, MergedFlights,
	MergedDepDelay, MergedArrDelay, MergedCancelRate, MergedDiversionRate,
}

// AirlinePerformance 单个航司的运行表现
type AirlinePerformance struct {
	Airline       string
	Flights       int
	DepDelay      float64
	ArrDelay      float64
	CancelRate    float64
	DiversionRate float64
}

// ClassScore 单个舱位的平均满意度
type ClassScore struct {
	Class   string
	Score   float64
	Surveys int
}

// CleanBTS 去掉日期无效或承运人代码不在映射表中的行, 并追加航司全名列
func CleanBTS(bts dataframe.DataFrame, dcfg *config.DataConfig) (dataframe.DataFrame, error) {
	if bts.Err != nil {
		return bts, fmt.Errorf("读取BTS数据失败: %w", bts.Err)
	}
	for _, col := range []string{BTSFlightDate, BTSAirline} {
		if !utils.HasColumn(bts, col) {
			return bts, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	bts = bts.Filter(dataframe.F{
		Colname:    BTSFlightDate,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			if utils.IsMissing(el) {
				return false
			}
			_, err := utils.ParseDate(el.String())
			return err == nil
		},
	}).Filter(dataframe.F{
		Colname:    BTSAirline,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			_, ok := dcfg.AirlineCodes[el.String()]
			return ok
		},
	})
	if bts.Err != nil {
		return bts, fmt.Errorf("过滤BTS数据失败: %w", bts.Err)
	}

	names := make([]string, bts.Nrow())
	codes := bts.Col(BTSAirline)
	for i := range names {
		names[i] = dcfg.AirlineCodes[codes.Elem(i).String()]
	}
	return bts.Mutate(series.New(names, series.String, airlineNameColumn)), nil
}

// AggregatePerformance 按航司汇总航班量、平均延误、取消率和备降率
// 缺失的列或全为空值的列结果为NaN
func AggregatePerformance(bts dataframe.DataFrame) map[string]AirlinePerformance {
	bts, _ = utils.EnsureColumns(bts, BTSDepDelay, BTSArrDelay, BTSCancelled, BTSDiverted)
	out := make(map[string]AirlinePerformance)
	if bts.Nrow() == 0 {
		return out
	}

	for _, group := range bts.GroupBy(airlineNameColumn).GetGroups() {
		name := group.Col(airlineNameColumn).Elem(0).String()
		out[name] = AirlinePerformance{
			Airline:       name,
			Flights:       group.Nrow(),
			DepDelay:      columnMean(group.Col(BTSDepDelay)),
			ArrDelay:      columnMean(group.Col(BTSArrDelay)),
			CancelRate:    columnMean(group.Col(BTSCancelled)),
			DiversionRate: columnMean(group.Col(BTSDiverted)),
		}
	}
	return out
}

// ScoreByClass 按舱位计算平均满意度得分(满意=1, 其余=0)
func ScoreByClass(survey dataframe.DataFrame, dcfg *config.DataConfig) (map[string]ClassScore, error) {
	satCol := dcfg.Column(config.ColSatisfaction)
	classCol := dcfg.Column(config.ColClass)
	for _, col := range []string{satCol, classCol} {
		if !utils.HasColumn(survey, col) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	out := make(map[string]ClassScore)
	sat := survey.Col(satCol)
	class := survey.Col(classCol)
	sums := make(map[string]float64)
	for i := 0; i < survey.Nrow(); i++ {
		ce := class.Elem(i)
		if utils.IsMissing(ce) {
			continue
		}
		se := sat.Elem(i)
		label := NormalizeSatisfaction(se.String(), !utils.IsMissing(se))
		c := ce.String()
		cs := out[c]
		cs.Class = c
		cs.Surveys++
		sums[c] += label.Score()
		out[c] = cs
	}
	for c, cs := range out {
		cs.Score = sums[c] / float64(cs.Surveys)
		out[c] = cs
	}
	return out, nil
}

// MergeDelaySurvey 用固定的舱位->航司映射将问卷得分与BTS运行表现拼接
// 按 ClassOrder 输出, 映射中没有表现数据或没有问卷数据的组合跳过
func MergeDelaySurvey(bts, survey dataframe.DataFrame, dcfg *config.DataConfig) (dataframe.DataFrame, error) {
	cleaned, err := CleanBTS(bts, dcfg)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	perf := AggregatePerformance(cleaned)
	scores, err := ScoreByClass(survey, dcfg)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	var (
		airlines, classes               []string
		satScores, depDelays, arrDelays []float64
		cancelRates, diversionRates     []float64
		surveys, flights                []int
	)
	for _, class := range classOrder(dcfg) {
		cs, ok := scores[class]
		if !ok {
			continue
		}
		for _, airline := range dcfg.ClassAirlines[class] {
			p, ok := perf[airline]
			if !ok {
				continue
			}
			airlines = append(airlines, airline)
			classes = append(classes, class)
			satScores = append(satScores, cs.Score)
			surveys = append(surveys, cs.Surveys)
			flights = append(flights, p.Flights)
			depDelays = append(depDelays, p.DepDelay)
			arrDelays = append(arrDelays, p.ArrDelay)
			cancelRates = append(cancelRates, p.CancelRate)
			diversionRates = append(diversionRates, p.DiversionRate)
		}
	}

	merged := dataframe.New(
		series.New(airlines, series.String, MergedAirline),
		series.New(classes, series.String, MergedClass),
		series.New(satScores, series.Float, MergedSatisfaction),
		series.New(surveys, series.Int, MergedSurveys),
		series.New(flights, series.Int, MergedFlights),
		series.New(depDelays, series.Float, MergedDepDelay),
		series.New(arrDelays, series.Float, MergedArrDelay),
		series.New(cancelRates, series.Float, MergedCancelRate),
		series.New(diversionRates, series.Float, MergedDiversionRate),
	)
	if merged.Err != nil {
		return merged, fmt.Errorf("构建合并结果失败: %w", merged.Err)
	}
	return merged, nil
}

// classOrder 先按配置的顺序, 映射中其余舱位按名称排在后面
func classOrder(dcfg *config.DataConfig) []string {
	order := append([]string(nil), dcfg.ClassOrder...)
	var rest []string
	for class := range dcfg.ClassAirlines {
		if !utils.Contains(order, class) {
			rest = append(rest, class)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func columnMean(s series.Series) float64 {
	var sum float64
	var n int
	for i := 0; i < s.Len(); i++ {
		v, ok := utils.ParseFloat(s.Elem(i))
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

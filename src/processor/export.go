package processor

import (
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

// RecordsFrame 将记录还原为DataFrame, 列名与输入文件一致
// 源文件中不存在的可选列不输出, 空值写为NaN
func RecordsFrame(records []Record, schema Schema, dcfg *config.DataConfig) dataframe.DataFrame {
	n := len(records)
	var (
		sat      = make([]string, n)
		airline  = make([]string, n)
		date     = make([]string, n)
		year     = make([]int, n)
		class    = make([]string, n)
		travel   = make([]string, n)
		distance = make([]string, n)
		age      = make([]string, n)
		depDelay = make([]string, n)
		arrDelay = make([]string, n)
	)
	for i, r := range records {
		sat[i] = string(r.Satisfaction)
		airline[i] = r.Airline
		date[i] = r.FlightDate.Format(dateLayout)
		year[i] = r.Year
		class[i] = stringOrNaN(r.Class)
		travel[i] = stringOrNaN(r.TravelType)
		distance[i] = floatText(r.FlightDistance)
		age[i] = floatText(r.Age)
		depDelay[i] = floatText(r.DepartureDelay)
		arrDelay[i] = floatText(r.ArrivalDelay)
	}

	cols := []series.Series{
		series.New(sat, series.String, dcfg.Column(config.ColSatisfaction)),
		series.New(airline, series.String, AirlineColumn),
		series.New(date, series.String, FlightDateColumn),
		series.New(year, series.Int, YearColumn),
	}
	if schema.Class {
		cols = append(cols, series.New(class, series.String, dcfg.Column(config.ColClass)))
	}
	if schema.TravelType {
		cols = append(cols, series.New(travel, series.String, dcfg.Column(config.ColTravelType)))
	}
	if schema.FlightDistance {
		cols = append(cols, series.New(distance, series.Float, dcfg.Column(config.ColFlightDistance)))
	}
	if schema.Age {
		cols = append(cols, series.New(age, series.Float, dcfg.Column(config.ColAge)))
	}
	if schema.DepartureDelay {
		cols = append(cols, series.New(depDelay, series.Float, dcfg.Column(config.ColDepartureDelay)))
	}
	if schema.ArrivalDelay {
		cols = append(cols, series.New(arrDelay, series.Float, dcfg.Column(config.ColArrivalDelay)))
	}
	return dataframe.New(cols...)
}

func stringOrNaN(o OptionalString) string {
	if !o.Valid {
		return utils.NaN
	}
	return o.Value
}

// floatText 数值以文本交给Float列解析, 这样空值才会被标记为NA
func floatText(o OptionalFloat) string {
	if !o.Valid {
		return utils.NaN
	}
	return strconv.FormatFloat(o.Value, 'f', -1, 64)
}

package fetch

import (
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/processor"
)

var (
	origins      = []string{"JFK", "LAX", "ORD", "DFW", "ATL"}
	destinations = []string{"SFO", "DEN", "MIA", "SEA", "BOS"}
)

// SyntheticBTS 生成n行合成准点数据, 航班日期从start起每小时一班
func SyntheticBTS(n int, seed int64, start time.Time, dcfg *config.DataConfig) dataframe.DataFrame {
	faker := gofakeit.New(uint64(seed))

	codes := make([]string, 0, len(dcfg.AirlineCodes))
	for code := range dcfg.AirlineCodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var (
		dates     = make([]string, n)
		airlines  = make([]string, n)
		orig      = make([]string, n)
		dest      = make([]string, n)
		depDelay  = make([]int, n)
		arrDelay  = make([]int, n)
		cancelled = make([]string, n)
		diverted  = make([]string, n)
	)
	for i := 0; i < n; i++ {
		dates[i] = start.Add(time.Duration(i) * time.Hour).Format("2006-01-02 15:04:05")
		airlines[i] = faker.RandomString(codes)
		orig[i] = faker.RandomString(origins)
		dest[i] = faker.RandomString(destinations)
		depDelay[i] = faker.IntRange(0, 299)
		arrDelay[i] = faker.IntRange(0, 299)
		cancelled[i] = flag(faker.Float64() < 0.05)
		diverted[i] = flag(faker.Float64() < 0.01)
	}

	return dataframe.New(
		series.New(dates, series.String, processor.BTSFlightDate),
		series.New(airlines, series.String, processor.BTSAirline),
		series.New(orig, series.String, processor.BTSOrigin),
		series.New(dest, series.String, processor.BTSDest),
		series.New(depDelay, series.Int, processor.BTSDepDelay),
		series.New(arrDelay, series.Int, processor.BTSArrDelay),
		series.New(cancelled, series.String, processor.BTSCancelled),
		series.New(diverted, series.String, processor.BTSDiverted),
	)
}

// SampleSurvey 生成n行样例问卷, 列名取自数据配置
func SampleSurvey(n int, seed int64, dcfg *config.DataConfig) dataframe.DataFrame {
	faker := gofakeit.New(uint64(seed))

	var (
		ids          = make([]int, n)
		satisfaction = make([]string, n)
		gender       = make([]string, n)
		age          = make([]int, n)
		customer     = make([]string, n)
		travel       = make([]string, n)
		class        = make([]string, n)
		distance     = make([]int, n)
		arrDelay     = make([]int, n)
	)
	labels := []string{string(processor.Satisfied), string(processor.Dissatisfied)}
	for i := 0; i < n; i++ {
		ids[i] = i + 1
		satisfaction[i] = faker.RandomString(labels)
		gender[i] = faker.RandomString([]string{"Male", "Female"})
		age[i] = faker.IntRange(18, 79)
		customer[i] = faker.RandomString([]string{"Loyal Customer", "disloyal Customer"})
		travel[i] = faker.RandomString([]string{"Business travel", "Personal Travel"})
		class[i] = faker.RandomString(dcfg.ClassOrder)
		distance[i] = faker.IntRange(100, 4999)
		arrDelay[i] = faker.IntRange(0, 299)
	}

	return dataframe.New(
		series.New(ids, series.Int, "id"),
		series.New(satisfaction, series.String, dcfg.Column(config.ColSatisfaction)),
		series.New(gender, series.String, "Gender"),
		series.New(age, series.Int, dcfg.Column(config.ColAge)),
		series.New(customer, series.String, "Customer Type"),
		series.New(travel, series.String, dcfg.Column(config.ColTravelType)),
		series.New(class, series.String, dcfg.Column(config.ColClass)),
		series.New(distance, series.Int, dcfg.Column(config.ColFlightDistance)),
		series.New(arrDelay, series.Int, dcfg.Column(config.ColArrivalDelay)),
	)
}

// flag 与BTS原始数据一致, 用 1.00 / 0.00 表示
func flag(b bool) string {
	if b {
		return "1.00"
	}
	return "0.00"
}

package processor

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/anu-justdidit/airline-dash-app/src/config"
)

// 合成列的列名
const (
	AirlineColumn    = "Airline"
	FlightDateColumn = "Flight Date"
	YearColumn       = "Year"
)

const dateLayout = "2006-01-02 15:04:05"

// Augmenter 为每行问卷分配展示用的航司和航班日期
// 使用固定种子, 进程重启后结果一致
type Augmenter struct {
	Airlines []string
	Start    time.Time
	End      time.Time
	Seed     int64
}

func NewAugmenter(dcfg *config.DataConfig, seed int64) (*Augmenter, error) {
	start, end, err := dcfg.DateRange()
	if err != nil {
		return nil, err
	}
	if len(dcfg.Airlines) == 0 {
		return nil, fmt.Errorf("航司目录为空")
	}
	return &Augmenter{
		Airlines: dcfg.Airlines,
		Start:    start,
		End:      end,
		Seed:     seed,
	}, nil
}

// Augment 覆盖写入 Airline / Flight Date / Year 三列
func (a *Augmenter) Augment(df dataframe.DataFrame) dataframe.DataFrame {
	n := df.Nrow()
	faker := gofakeit.New(uint64(a.Seed))

	// 先整列分配航司, 再整列分配日期, 保证同一种子下两列互不影响顺序
	airlines := make([]string, n)
	for i := range airlines {
		airlines[i] = faker.RandomString(a.Airlines)
	}

	dates := make([]string, n)
	years := make([]int, n)
	for i := range dates {
		d := faker.DateRange(a.Start, a.End).UTC()
		if !d.Before(a.End) {
			d = a.End.Add(-time.Second)
		}
		dates[i] = d.Format(dateLayout)
		years[i] = d.Year()
	}

	return df.
		Mutate(series.New(airlines, series.String, AirlineColumn)).
		Mutate(series.New(dates, series.String, FlightDateColumn)).
		Mutate(series.New(years, series.Int, YearColumn))
}

package processor

import (
	"encoding/json"
	"time"
)

// OptionalString 可能缺失的文本字段
type OptionalString struct {
	Value string
	Valid bool
}

// OptionalFloat 可能缺失的数值字段, 无效时JSON输出null
type OptionalFloat struct {
	Value float64
	Valid bool
}

func SomeString(v string) OptionalString { return OptionalString{Value: v, Valid: true} }
func SomeFloat(v float64) OptionalFloat   { return OptionalFloat{Value: v, Valid: true} }

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Record 一条问卷记录, 加载后不再修改
type Record struct {
	Satisfaction   Label
	Airline        string
	Class          OptionalString
	TravelType     OptionalString
	FlightDate     time.Time
	Year           int
	FlightDistance OptionalFloat
	Age            OptionalFloat
	DepartureDelay OptionalFloat
	ArrivalDelay   OptionalFloat
}

// Schema 记录源文件中各可选列是否存在
type Schema struct {
	Class          bool `json:"class"`
	TravelType     bool `json:"travel_type"`
	FlightDistance bool `json:"flight_distance"`
	Age            bool `json:"age"`
	DepartureDelay bool `json:"departure_delay"`
	ArrivalDelay   bool `json:"arrival_delay"`
}

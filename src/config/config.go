package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	DataFile   string `json:"data_file"`    // 问卷数据文件(csv/xlsx)
	DataDir    string `json:"data_dir"`     // 原始数据与处理结果目录
	ReportDir  string `json:"report_dir"`   // 静态图表输出目录
	HTTPAddr   string `json:"http_addr"`    // 看板监听地址
	LogName    string `json:"log_name"`     // 日志文件
	LogMaxSize string `json:"log_max_size"` // 日志轮转阈值, 形如 "10 * 1024 * 1024"
	RotateSpec string `json:"rotate_spec"`  // 日志轮转检查的cron表达式
	PidFile    string `json:"pid_file"`     // serve进程pid, 供rotate命令发送SIGHUP
	Seed       int64  `json:"seed"`         // 合成字段的随机种子

	Playback struct {
		Interval Duration `json:"interval"` // 默认播放间隔
		Speeds   []Speed  `json:"speeds"`   // 可选播放速度
	} `json:"playback"`

	Fetch struct {
		URLTemplate string   `json:"url_template"` // BTS下载地址, 两个占位符: 年, 月
		Year        int      `json:"year"`
		Month       int      `json:"month"`
		Timeout     Duration `json:"timeout"`
	} `json:"fetch"`

	Email struct {
		Server        string   `json:"server"`         // 邮件服务器地址
		Username      string   `json:"username"`       // 邮箱用户名
		Password      string   `json:"password"`       // 邮箱密码
		TargetSubject string   `json:"target_subject"` // 需要匹配的邮件主题
		CheckInterval Duration `json:"check_interval"` // 检查新邮件的间隔时间
	} `json:"email"`

	SendEmail struct {
		Server   string   `json:"server"`   // SMTP服务器地址
		Username string   `json:"username"` // 发件人
		Password string   `json:"password"` // 密码/授权码
		To       []string `json:"to"`       // 收件人
		Subject  string   `json:"subject"`  // 报告邮件主题
	} `json:"send_email"`

	Digest struct {
		Webhook string `json:"webhook"` // 机器人webhook地址, 为空则不推送
		Spec    string `json:"spec"`    // 推送cron表达式
	} `json:"digest"`
}

// Speed 播放速度选项
type Speed struct {
	Label    string   `json:"label"`
	Interval Duration `json:"interval"`
}

// DataConfig 数据相关的配置: 列名映射, 航司目录, 合并规则
type DataConfig struct {
	Columns       map[string]string   `json:"columns"`        // 逻辑列名 -> 文件表头
	Airlines      []string            `json:"airlines"`       // 合成航司目录
	AirlineCodes  map[string]string   `json:"airline_codes"`  // 承运人代码 -> 航司名称
	ClassAirlines map[string][]string `json:"class_airlines"` // 舱位 -> 航司
	ClassOrder    []string            `json:"class_order"`    // 合并结果中舱位的输出顺序
	DateWindow    struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_window"`
	HeaderRow int `json:"header_row"` // xlsx表头所在行(从0开始)
}

// 逻辑列名
const (
	ColSatisfaction   = "satisfaction"
	ColClass          = "class"
	ColTravelType     = "travel_type"
	ColFlightDistance = "flight_distance"
	ColAge            = "age"
	ColDepartureDelay = "departure_delay"
	ColArrivalDelay   = "arrival_delay"
)

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	mu                 sync.RWMutex
)

func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	var err error
	once.Do(func() {
		instance, dataConfigInstance, err = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, err
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	cfg.applyDefaults()
	dcfg.applyDefaults()
	return cfg, dcfg, nil
}

// Default 返回全部使用默认值的配置, 配置目录不存在时使用
func Default() (*Config, *DataConfig) {
	cfg := &Config{}
	cfg.applyDefaults()
	dcfg := &DataConfig{}
	dcfg.applyDefaults()
	return cfg, dcfg
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	var dcfg DataConfig
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg    *Config
		dcfg   *DataConfig
		errors []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return nil, nil, combineErrors(errors)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

func (c *Config) applyDefaults() {
	if c.DataFile == "" {
		c.DataFile = "train.csv"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.ReportDir == "" {
		c.ReportDir = filepath.Join("reports", "figures")
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8051"
	}
	if c.LogName == "" {
		c.LogName = "app.log"
	}
	if c.LogMaxSize == "" {
		c.LogMaxSize = "10 * 1024 * 1024"
	}
	if c.RotateSpec == "" {
		c.RotateSpec = "@every 1m"
	}
	if c.PidFile == "" {
		c.PidFile = "airline-dash.pid"
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Playback.Interval == 0 {
		c.Playback.Interval = Duration(time.Second)
	}
	if len(c.Playback.Speeds) == 0 {
		c.Playback.Speeds = []Speed{
			{Label: "Slow (2s/frame)", Interval: Duration(2 * time.Second)},
			{Label: "Normal (1s/frame)", Interval: Duration(time.Second)},
			{Label: "Fast (0.5s/frame)", Interval: Duration(500 * time.Millisecond)},
		}
	}
	if c.Fetch.URLTemplate == "" {
		c.Fetch.URLTemplate = "https://transtats.bts.gov/PREZIP/On_Time_Reporting_Carrier_On_Time_Performance_1987_present_%d_%d.zip"
	}
	if c.Fetch.Year == 0 {
		c.Fetch.Year = 2024
	}
	if c.Fetch.Month == 0 {
		c.Fetch.Month = 1
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = Duration(2 * time.Minute)
	}
	if c.Email.CheckInterval == 0 {
		c.Email.CheckInterval = Duration(5 * time.Minute)
	}
	if c.Email.TargetSubject == "" {
		c.Email.TargetSubject = "satisfaction"
	}
	if c.SendEmail.Subject == "" {
		c.SendEmail.Subject = "Airline Performance Analysis"
	}
	if c.Digest.Spec == "" {
		c.Digest.Spec = "@daily"
	}
}

func (dc *DataConfig) applyDefaults() {
	defaults := map[string]string{
		ColSatisfaction:   "satisfaction",
		ColClass:          "Class",
		ColTravelType:     "Type of Travel",
		ColFlightDistance: "Flight Distance",
		ColAge:            "Age",
		ColDepartureDelay: "Departure Delay in Minutes",
		ColArrivalDelay:   "Arrival Delay in Minutes",
	}
	if dc.Columns == nil {
		dc.Columns = make(map[string]string, len(defaults))
	}
	for k, v := range defaults {
		if dc.Columns[k] == "" {
			dc.Columns[k] = v
		}
	}
	if len(dc.Airlines) == 0 {
		dc.Airlines = []string{
			"Air India", "IndiGo", "SpiceJet", "Vistara", "Akasa Air", "Go First",
			"HAL", "Boeing", "Airbus", "Embraer", "Dassault Aviation", "Textron Aviation",
		}
	}
	if len(dc.AirlineCodes) == 0 {
		dc.AirlineCodes = map[string]string{
			"AA": "American Airlines",
			"DL": "Delta Air Lines",
			"UA": "United Airlines",
			"WN": "Southwest Airlines",
			"AS": "Alaska Airlines",
			"NK": "Spirit Air Lines",
			"F9": "Frontier Airlines",
			"G4": "Allegiant Air",
			"HA": "Hawaiian Airlines",
			"B6": "JetBlue Airways",
		}
	}
	if len(dc.ClassAirlines) == 0 {
		dc.ClassAirlines = map[string][]string{
			"Business": {"Delta Air Lines", "American Airlines", "United Airlines"},
			"Eco":      {"Southwest Airlines", "JetBlue Airways", "Alaska Airlines"},
			"Eco Plus": {"Frontier Airlines", "Spirit Air Lines", "Allegiant Air"},
		}
	}
	if len(dc.ClassOrder) == 0 {
		dc.ClassOrder = []string{"Business", "Eco", "Eco Plus"}
	}
	if dc.DateWindow.Start == "" {
		dc.DateWindow.Start = "2006-01-01"
	}
	if dc.DateWindow.End == "" {
		dc.DateWindow.End = "2025-08-01"
	}
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
// 用于从JSON字符串解析Duration
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
// 用于将Duration序列化为JSON字符串
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Column 返回逻辑列对应的文件表头
func (dc *DataConfig) Column(name string) string {
	mu.RLock()
	defer mu.RUnlock()
	if col, ok := dc.Columns[name]; ok {
		return col
	}
	return name
}

func (dc *DataConfig) SetColumn(name, header string) {
	mu.Lock()
	defer mu.Unlock()
	dc.Columns[name] = header
}

// DateRange 解析合成日期窗口
func (dc *DataConfig) DateRange() (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", dc.DateWindow.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("date_window.start 格式错误: %w", err)
	}
	end, err := time.Parse("2006-01-02", dc.DateWindow.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("date_window.end 格式错误: %w", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("date_window 结束时间必须晚于开始时间")
	}
	return start, end, nil
}

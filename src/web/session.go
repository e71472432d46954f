package web

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/anu-justdidit/airline-dash-app/src/processor"
)

// Session 看板唯一的跨交互状态: 筛选条件和播放状态, 由互斥锁串行化, 后写者生效
// 数据集句柄只读共享, 重新加载时整体替换
type Session struct {
	mu       sync.Mutex
	filters  processor.Filters
	playback processor.Playback

	ds      atomic.Pointer[processor.Dataset]
	metrics *Metrics
}

// NewSession 初始筛选取数据集默认值, 播放从最小年份开始
func NewSession(ds *processor.Dataset, interval time.Duration, metrics *Metrics) *Session {
	min, _ := ds.YearRange()
	s := &Session{
		filters:  ds.DefaultFilters(),
		playback: processor.NewPlayback(min, interval),
		metrics:  metrics,
	}
	s.ds.Store(ds)
	metrics.setDatasetSize(ds.Len())
	return s
}

func (s *Session) Dataset() *processor.Dataset { return s.ds.Load() }

// Replace 换入新的数据集, 之后的计算都使用新句柄
func (s *Session) Replace(ds *processor.Dataset) {
	s.ds.Store(ds)
	s.metrics.setDatasetSize(ds.Len())
}

// compute 调用方需持有锁
func (s *Session) compute(trigger string) processor.View {
	start := time.Now()
	v := processor.ComputeView(s.ds.Load(), s.filters, s.playback)
	s.metrics.observeView(trigger, time.Since(start))
	return v
}

// View 当前视图
func (s *Session) View() processor.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compute("read")
}

// Controls 一次控件变更, 为nil的字段保持不变
type Controls struct {
	Airlines    *[]string `json:"airlines"`
	Classes     *[]string `json:"classes"`
	TravelTypes *[]string `json:"travel_types"`
	Year        *int      `json:"year"`
}

// Apply 应用控件变更并重新计算视图
func (s *Session) Apply(c Controls) processor.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Airlines != nil {
		s.filters.Airlines = append([]string(nil), (*c.Airlines)...)
	}
	if c.Classes != nil {
		s.filters.Classes = append([]string(nil), (*c.Classes)...)
	}
	if c.TravelTypes != nil {
		s.filters.TravelTypes = append([]string(nil), (*c.TravelTypes)...)
	}
	if c.Year != nil {
		s.playback.SetYear(*c.Year)
	}
	return s.compute("controls")
}

// TogglePlay 切换播放/暂停
func (s *Session) TogglePlay() processor.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	min, max := s.ds.Load().YearRange()
	s.playback.Toggle(min, max)
	return s.compute("play")
}

// SetInterval 修改播放间隔, 非正数忽略
func (s *Session) SetInterval(d time.Duration) processor.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback.SetInterval(d)
	return s.compute("speed")
}

// Interval 当前播放间隔
func (s *Session) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playback.Interval
}

// Tick 播放时前进一年并返回新视图; 暂停时返回 false
func (s *Session) Tick() (processor.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playback.Advance() {
		return processor.View{}, false
	}
	s.metrics.tick()
	return s.compute("tick"), true
}

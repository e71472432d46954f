package processor

import (
	"encoding/json"
	"time"
)

// State 播放状态
type State int

const (
	Playing State = iota
	Paused
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "paused"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// DefaultInterval 默认每秒前进一年
const DefaultInterval = time.Second

// Playback 年份游标的播放状态
// Tick 只在播放时递增; Year 是最后一次显式设置的年份, 暂停时显示它
type Playback struct {
	State    State
	Tick     int
	Year     int
	Interval time.Duration
}

// NewPlayback 默认处于播放状态
func NewPlayback(year int, interval time.Duration) Playback {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Playback{State: Playing, Year: year, Interval: interval}
}

// DisplayedYear 当前应展示的年份
func (p Playback) DisplayedYear(min, max int) int {
	if max < min {
		max = min
	}
	if p.State == Playing {
		span := max - min + 1
		off := p.Tick % span
		if off < 0 {
			off += span
		}
		return min + off
	}
	if p.Year < min {
		return min
	}
	if p.Year > max {
		return max
	}
	return p.Year
}

// Toggle 切换播放/暂停; 暂停时把游标冻结在当前显示的年份
func (p *Playback) Toggle(min, max int) {
	if p.State == Playing {
		p.Year = p.DisplayedYear(min, max)
		p.State = Paused
		return
	}
	p.State = Playing
}

// Advance 播放时前进一个tick, 暂停时不变
func (p *Playback) Advance() bool {
	if p.State != Playing {
		return false
	}
	p.Tick++
	return true
}

// SetYear 直接选择年份, 播放中只记录不影响显示
func (p *Playback) SetYear(y int) { p.Year = y }

func (p *Playback) SetInterval(d time.Duration) {
	if d > 0 {
		p.Interval = d
	}
}

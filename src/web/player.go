package web

import (
	"context"
	"time"
)

// Player 按会话的播放间隔驱动年份游标, 每前进一次就广播新视图
type Player struct {
	session *Session
	hub     *Hub
}

func NewPlayer(session *Session, hub *Hub) *Player {
	return &Player{session: session, hub: hub}
}

// Run 阻塞直到ctx结束; 间隔变化在下一次tick时生效
func (p *Player) Run(ctx context.Context) {
	interval := p.session.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if v, ok := p.session.Tick(); ok {
				p.hub.Broadcast(viewMessage(v))
			}
			if d := p.session.Interval(); d != interval {
				interval = d
				ticker.Reset(d)
			}
		}
	}
}

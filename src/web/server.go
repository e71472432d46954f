package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anu-justdidit/airline-dash-app/src/config"
	"github.com/anu-justdidit/airline-dash-app/src/processor"
	"github.com/anu-justdidit/airline-dash-app/src/report"
	"github.com/anu-justdidit/airline-dash-app/src/storage"
	"github.com/anu-justdidit/airline-dash-app/src/utils"
)

// Server 看板HTTP服务
type Server struct {
	cfg     *config.Config
	dcfg    *config.DataConfig
	session *Session
	hub     *Hub
	metrics *Metrics
	logger  *storage.Logger
	router  chi.Router
}

func NewServer(cfg *config.Config, dcfg *config.DataConfig, session *Session, hub *Hub, metrics *Metrics, logger *storage.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		dcfg:    dcfg,
		session: session,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/options", s.handleOptions)
		r.Post("/controls", s.handleControls)
		r.Post("/play", s.handlePlay)
		r.Post("/speed", s.handleSpeed)
	})
	r.Get("/ws", s.handleWS)
	r.Get("/charts/{name}.png", s.handleChart)
	r.Get("/export.xlsx", s.handleExport)
	r.Get("/logs", s.handleLogs)
	r.Handle("/metrics", s.metrics.Handler())
	return r
}

// Reload 换入新数据集并广播, 供文件监控回调使用
func (s *Server) Reload(ds *processor.Dataset, err error) {
	s.metrics.reload(err == nil)
	if err != nil {
		s.logger.Error("重新加载数据失败, 继续使用旧数据: " + err.Error())
		return
	}
	s.session.Replace(ds)
	s.logger.Info(fmt.Sprintf("数据已重新加载: %d 条记录", ds.Len()))
	s.hub.Broadcast(viewMessage(s.session.View()))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	render(w, tmplDashboard, map[string]interface{}{
		"Charts": []string{"facets", "airlines", "trend", "split"},
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newViewPayload(s.session.View()))
}

type speedOption struct {
	Label      string `json:"label"`
	IntervalMS int64  `json:"interval_ms"`
}

type optionsPayload struct {
	Airlines    []string          `json:"airlines"`
	Classes     []string          `json:"classes"`
	TravelTypes []string          `json:"travel_types"`
	YearMin     int               `json:"year_min"`
	YearMax     int               `json:"year_max"`
	Marks       []int             `json:"marks"`
	Speeds      []speedOption     `json:"speeds"`
	Defaults    processor.Filters `json:"defaults"`
}

// YearMarks 滑块刻度, 大约十个
func YearMarks(min, max int) []int {
	step := (max - min) / 10
	if step < 1 {
		step = 1
	}
	var marks []int
	for y := min; y <= max; y += step {
		marks = append(marks, y)
	}
	return marks
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds := s.session.Dataset()
	min, max := ds.YearRange()
	speeds := make([]speedOption, 0, len(s.cfg.Playback.Speeds))
	for _, sp := range s.cfg.Playback.Speeds {
		speeds = append(speeds, speedOption{Label: sp.Label, IntervalMS: time.Duration(sp.Interval).Milliseconds()})
	}
	writeJSON(w, http.StatusOK, optionsPayload{
		Airlines:    ds.Airlines(),
		Classes:     ds.Classes(),
		TravelTypes: ds.TravelTypes(),
		YearMin:     min,
		YearMax:     max,
		Marks:       YearMarks(min, max),
		Speeds:      speeds,
		Defaults:    ds.DefaultFilters(),
	})
}

// respond 返回新视图并推送给其它页面
func (s *Server) respond(w http.ResponseWriter, v processor.View) {
	payload := newViewPayload(v)
	s.hub.Broadcast(Message{Type: "view", Data: payload})
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleControls(w http.ResponseWriter, r *http.Request) {
	var c Controls
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid controls: "+err.Error())
		return
	}
	s.respond(w, s.session.Apply(c))
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	v := s.session.TogglePlay()
	s.logger.Info(fmt.Sprintf("播放状态切换为 %s (年份 %d)", v.State, v.Year))
	s.respond(w, v)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IntervalMS int64 `json:"interval_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid speed: "+err.Error())
		return
	}
	if body.IntervalMS <= 0 {
		writeError(w, http.StatusBadRequest, "interval_ms must be positive")
		return
	}
	s.respond(w, s.session.SetInterval(time.Duration(body.IntervalMS)*time.Millisecond))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, viewMessage(s.session.View()))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	renderer, ok := report.Dashboard[chi.URLParam(r, "name")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := renderer(w, s.session.View()); err != nil {
		s.logger.Error("渲染图表失败: " + err.Error())
	}
}

// handleExport 导出当前累计筛选结果
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	v := s.session.View()
	df := processor.RecordsFrame(v.Subset(), v.Schema, s.dcfg)
	if df.Err != nil {
		writeError(w, http.StatusInternalServerError, df.Err.Error())
		return
	}
	f, err := utils.DataFrameToExcel(df, "Subset")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="airline_satisfaction_%d.xlsx"`, v.Year))
	if err := f.Write(w); err != nil {
		s.logger.Error("导出Excel失败: " + err.Error())
	}
}

// handleLogs 实时输出日志
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	// 设置响应头
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Transfer-Encoding", "chunked")

	// 创建日志订阅通道
	logChan := s.logger.Subscribe()
	defer s.logger.Unsubscribe(logChan)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	for {
		select {
		case msg, ok := <-logChan:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, msg); err != nil {
				// 客户端断开
				return
			}
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

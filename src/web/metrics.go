package web

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 看板运行指标, 使用独立的registry, 测试中可重复创建
type Metrics struct {
	registry *prometheus.Registry

	views        *prometheus.CounterVec
	ticks        prometheus.Counter
	reloads      *prometheus.CounterVec
	computeTime  prometheus.Histogram
	clients      prometheus.Gauge
	datasetSize  prometheus.Gauge
	digestPushes *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		views: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airline_dash",
			Name:      "view_computations_total",
			Help:      "Number of dashboard views computed, by trigger.",
		}, []string{"trigger"}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "airline_dash",
			Name:      "playback_ticks_total",
			Help:      "Number of playback ticks that advanced the year cursor.",
		}),
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airline_dash",
			Name:      "dataset_reloads_total",
			Help:      "Dataset reload attempts, by result.",
		}, []string{"result"}),
		computeTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "airline_dash",
			Name:      "view_compute_seconds",
			Help:      "Time spent computing one dashboard view.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		clients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "airline_dash",
			Name:      "websocket_clients",
			Help:      "Connected live-update clients.",
		}),
		datasetSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "airline_dash",
			Name:      "dataset_records",
			Help:      "Records in the loaded dataset.",
		}),
		digestPushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airline_dash",
			Name:      "digest_pushes_total",
			Help:      "Digest webhook pushes, by result.",
		}, []string{"result"}),
	}
}

// 以下方法允许 nil 接收者, 未启用指标时直接忽略

func (m *Metrics) observeView(trigger string, d time.Duration) {
	if m == nil {
		return
	}
	m.views.WithLabelValues(trigger).Inc()
	m.computeTime.Observe(d.Seconds())
}

func (m *Metrics) tick() {
	if m != nil {
		m.ticks.Inc()
	}
}

func (m *Metrics) reload(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.reloads.WithLabelValues("ok").Inc()
	} else {
		m.reloads.WithLabelValues("error").Inc()
	}
}

func (m *Metrics) setClients(n int) {
	if m != nil {
		m.clients.Set(float64(n))
	}
}

func (m *Metrics) setDatasetSize(n int) {
	if m != nil {
		m.datasetSize.Set(float64(n))
	}
}

// DigestPushed 记录一次摘要推送结果
func (m *Metrics) DigestPushed(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.digestPushes.WithLabelValues("error").Inc()
		return
	}
	m.digestPushes.WithLabelValues("ok").Inc()
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

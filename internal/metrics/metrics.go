// Package metrics 暴露 Prometheus 指标（使用私有 Registry，不污染全局默认注册表）。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/John-Robertt/wikimdb/internal/domain"
)

const namespace = "wikimdb"

// Metrics 持有全部指标；实现 lookup.Observer。
type Metrics struct {
	registry *prometheus.Registry

	FetchDuration *prometheus.HistogramVec
	Projections   *prometheus.CounterVec
	Pages         *prometheus.CounterVec
}

// New 在新的私有 Registry 上注册全部指标（外加 Go 运行时与进程指标）。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_fetch_duration_seconds",
			Help:      "Latency of upstream GraphQL fetches by schema and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"schema", "outcome"}),
		Projections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projections_total",
			Help:      "Film records projected, by schema and result (found / not_found).",
		}, []string{"schema", "result"}),
		Pages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route pattern and status code.",
		}, []string{"route", "status"}),
	}
}

// Registry 返回私有注册表（测试与自定义导出用）。
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler 返回 /metrics 的 HTTP handler。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnFetch、OnProject、ObservePage 对 nil 接收者是空操作（未启用指标时可直接传 nil）。
func (m *Metrics) OnFetch(schema string, _ domain.EntityID, dur time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.FetchDuration.WithLabelValues(schema, outcome).Observe(dur.Seconds())
}

func (m *Metrics) OnProject(schema string, _ domain.EntityID, rec domain.FilmRecord) {
	if m == nil {
		return
	}
	result := "found"
	if rec.NotFound {
		result = "not_found"
	}
	m.Projections.WithLabelValues(schema, result).Inc()
}

// ObservePage 记录一次 HTTP 响应；route 应使用路由模式（例如 "/film/{id}"），避免标签基数失控。
func (m *Metrics) ObservePage(route string, status int) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.Pages.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

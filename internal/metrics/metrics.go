package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusTransportError 传输层失败时使用的状态码标签
const StatusTransportError = "transport_error"

// Metrics 指标收集器，每个实例使用独立的注册表
type Metrics struct {
	registry *prometheus.Registry

	// 探测请求指标
	ProbeRequestsTotal   *prometheus.CounterVec
	ProbeRequestDuration *prometheus.HistogramVec

	// 模拟服务HTTP指标
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	RateLimitRequestsTotal *prometheus.CounterVec
	CacheRequestsTotal     *prometheus.CounterVec
	AuthRequestsTotal      *prometheus.CounterVec
}

// NewMetrics 创建指标收集器
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		ProbeRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "probe_requests_total",
				Help: "探测请求总数",
			},
			[]string{"endpoint", "method", "status_code"},
		),

		ProbeRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "probe_request_duration_seconds",
				Help:    "探测请求持续时间",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status_code"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求持续时间",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RateLimitRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_requests_total",
				Help: "速率限制请求总数",
			},
			[]string{"result"}, // allowed, denied
		),

		CacheRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_requests_total",
				Help: "缓存请求总数",
			},
			[]string{"result"}, // hit, miss
		),

		AuthRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_requests_total",
				Help: "认证请求总数",
			},
			[]string{"result"}, // success, failure
		),
	}
}

// Handler 返回暴露指标的HTTP处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile 以Prometheus文本格式写入文件，供node_exporter等采集
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordProbe 记录收到响应的探测请求
func (m *Metrics) RecordProbe(endpoint, method string, statusCode int, duration time.Duration) {
	m.ProbeRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
	m.ProbeRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// RecordProbeError 记录传输层失败的探测请求
func (m *Metrics) RecordProbeError(endpoint, method string, duration time.Duration) {
	m.ProbeRequestsTotal.WithLabelValues(endpoint, method, StatusTransportError).Inc()
	m.ProbeRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// RecordHTTPRequest 记录HTTP请求指标
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRateLimit 记录速率限制指标
func (m *Metrics) RecordRateLimit(allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.RateLimitRequestsTotal.WithLabelValues(result).Inc()
}

// RecordCacheRequest 记录缓存请求指标
func (m *Metrics) RecordCacheRequest(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordAuth 记录认证指标
func (m *Metrics) RecordAuth(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.AuthRequestsTotal.WithLabelValues(result).Inc()
}

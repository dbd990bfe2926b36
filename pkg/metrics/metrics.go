package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "presenze"

// 批量标记单项结果
const (
	MarkCreated   = "created"
	MarkUpdated   = "updated"
	MarkUnchanged = "unchanged"
	MarkSkipped   = "skipped"
	MarkFailed    = "failed"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP 请求总数",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP 请求耗时",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	marks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_marks_total",
		Help:      "批量标记处理的日期数，按结果分类",
	}, []string{"outcome"})
)

// ObserveHTTP 记录一次 HTTP 请求
// route 使用路由模板（如 /api/v1/timetable/:id），避免标签基数膨胀
func ObserveHTTP(method, route string, status int, latency time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// RecordMark 记录批量标记单项结果
func RecordMark(outcome string) {
	marks.WithLabelValues(outcome).Inc()
}

// Handler Prometheus 抓取端点
func Handler() http.Handler {
	return promhttp.Handler()
}

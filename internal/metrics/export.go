package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cvforge",
			Subsystem: "export",
			Name:      "exports_total",
			Help:      "导出任务结果总数。",
		},
		[]string{"format", "status"},
	)

	exportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cvforge",
			Subsystem: "export",
			Name:      "render_duration_seconds",
			Help:      "无头浏览器渲染耗时分布（秒）。",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"format"},
	)
)

// ObserveExport 记录一次导出的结果；成功时同时记录渲染耗时。
func ObserveExport(format, status string, renderTime time.Duration) {
	exportsTotal.WithLabelValues(format, status).Inc()
	if renderTime > 0 {
		exportDuration.WithLabelValues(format).Observe(renderTime.Seconds())
	}
}

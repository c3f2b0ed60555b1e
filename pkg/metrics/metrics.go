package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchbot_updates_total",
			Help: "Inbound webhook updates by kind",
		},
		[]string{"kind"},
	)

	CallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchbot_callbacks_total",
			Help: "Callback button presses by namespace, action and result",
		},
		[]string{"namespace", "action", "result"},
	)

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatchbot_reminders_sent_total",
		Help: "Reminders delivered to drivers",
	})

	RemindersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dispatchbot_reminders_failed_total",
		Help: "Reminders that failed to deliver and were deactivated",
	})

	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchbot_reminder_sweeps_total",
			Help: "Reminder sweep runs by result",
		},
		[]string{"result"},
	)

	WaybillsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchbot_waybills_total",
			Help: "Waybill uploads by source and result",
		},
		[]string{"source", "result"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatchbot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatchbot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

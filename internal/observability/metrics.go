package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blinkchat_http_requests_total",
			Help: "Total number of HTTP requests processed by the service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blinkchat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "blinkchat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blinkchat_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	messagesStoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blinkchat_messages_stored_total",
			Help: "Total number of messages persisted to the store.",
		},
	)
	messagesSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blinkchat_messages_swept_total",
			Help: "Total number of expired messages removed by the sweeper.",
		},
	)
	attachmentsSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blinkchat_attachments_saved_total",
			Help: "Total number of attachment files written.",
		},
	)
	attachmentSweepFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blinkchat_attachment_sweep_failures_total",
			Help: "Total number of attachment deletions that failed during sweeps.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blinkchat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		messagesStoredTotal,
		messagesSweptTotal,
		attachmentsSavedTotal,
		attachmentSweepFailuresTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncMessageStored() {
	messagesStoredTotal.Inc()
}

func AddMessagesSwept(n int) {
	messagesSweptTotal.Add(float64(n))
}

func IncAttachmentSaved() {
	attachmentsSavedTotal.Inc()
}

func IncAttachmentSweepFailure() {
	attachmentSweepFailuresTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

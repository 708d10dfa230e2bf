// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubhub_event_registrations_total",
		Help: "Student registrations accepted.",
	})
	AttendanceSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubhub_attendance_submissions_total",
		Help: "Events whose attendance was finalized.",
	})
	CertificatesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubhub_certificates_issued_total",
		Help: "Certificates created at attendance submission.",
	})
	VenueRequestsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clubhub_venue_requests_purged_total",
		Help: "Approved venue requests deleted by the retention policy.",
	})
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clubhub_notifications_total",
		Help: "Notification attempts by stage and result.",
	}, []string{"stage", "result"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clubhub_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// GinMiddleware records request latency labelled by the matched route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

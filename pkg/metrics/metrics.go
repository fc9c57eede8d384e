package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lms"

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	dbQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "db_query_duration_seconds",
		Help:      "Database query latency by operation and table.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation", "table"})

	progressUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "progress_updates_total",
		Help:      "Video progress updates by outcome.",
	}, []string{"outcome"})

	courseCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "course_completions_total",
		Help:      "Enrollments promoted to COMPLETED by a progress update.",
	})

	progressResets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "progress_resets_total",
		Help:      "Course progress resets.",
	})
)

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordDBQuery observes a single SQL statement.
func RecordDBQuery(operation, table string, elapsed time.Duration) {
	dbQueryDuration.WithLabelValues(strings.ToUpper(operation), table).Observe(elapsed.Seconds())
}

// RecordProgressUpdate counts an update attempt; outcome is "ok" or an error class.
func RecordProgressUpdate(outcome string) {
	progressUpdates.WithLabelValues(outcome).Inc()
}

// RecordCourseCompletion counts an enrollment promotion.
func RecordCourseCompletion() {
	courseCompletions.Inc()
}

// RecordProgressReset counts a course progress reset.
func RecordProgressReset() {
	progressResets.Inc()
}

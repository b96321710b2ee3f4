package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	TrainingCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_training_completions_total",
			Help: "Training completion submissions by result",
		},
		[]string{"result"},
	)

	TrainingApprovals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_training_approvals_total",
			Help: "Supervisor decisions on training records",
		},
		[]string{"decision"},
	)

	CourseDeletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_course_deletions_total",
			Help: "Course deletions by result",
		},
		[]string{"result"},
	)

	CourseDeletionRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lms_course_deletion_rows_total",
			Help: "Dependent rows removed by course deletions, per table",
		},
		[]string{"table"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(TrainingCompletions)
	prometheus.MustRegister(TrainingApprovals)
	prometheus.MustRegister(CourseDeletions)
	prometheus.MustRegister(CourseDeletionRows)
}

// Result turns an error into the "ok"/"error" label used by the domain counters.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

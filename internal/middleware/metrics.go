package middleware

import (
	"strconv"
	"time"

	"wallet-backend/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestMetrics records request duration and writes one access log line per request
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      path,
			"status":    status,
			"latency":   elapsed.String(),
			"client_ip": c.ClientIP(),
		}).Info("HTTP request")
	}
}

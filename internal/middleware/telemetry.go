// Package middleware provides HTTP middleware components for authentication,
// request tracing, metrics and access logging.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// APIRecorder receives one observation per served request
type APIRecorder interface {
	RecordAPIRequest(method, route string, status int, duration time.Duration)
}

// unmatchedRoute labels requests that hit no registered route
const unmatchedRoute = "unmatched"

// TelemetryMiddleware starts a Sentry transaction per request, continuing any
// trace carried in the sentry-trace and baggage headers.
func TelemetryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip health check endpoints
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		tx := sentry.StartTransaction(
			c.Request.Context(),
			fmt.Sprintf("HTTP %s %s", c.Request.Method, routeOf(c)),
			sentry.ContinueFromHeaders(c.GetHeader(sentry.SentryTraceHeader), c.GetHeader(sentry.SentryBaggageHeader)),
			sentry.WithOpName("http.server"),
		)
		defer tx.Finish()

		tx.SetTag("http.method", c.Request.Method)
		tx.SetTag("http.route", routeOf(c))
		c.Request = c.Request.WithContext(tx.Context())

		c.Next()

		statusCode := c.Writer.Status()
		tx.SetData("http.status_code", statusCode)
		tx.Status = sentry.HTTPtoSpanStatus(statusCode)
	}
}

// MetricsMiddleware records method, route template, status and latency
func MetricsMiddleware(recorder APIRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		recorder.RecordAPIRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}

// RequestTimeout bounds the request context; handlers observe the deadline
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger writes one structured access log line per request
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"route":       routeOf(c),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}

// routeOf returns the matched route template so ids never become label values
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

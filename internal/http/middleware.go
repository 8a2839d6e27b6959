package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fintrack/internal/log"
	"fintrack/internal/notify"
)

const (
	headerRequestID = "X-Request-ID"
	ctxKeyRequestID = "request_id"
)

// requestContext tags each request with an id, a request-scoped logger and
// a notification collector, then logs its completion.
func requestContext(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, requestID)
		c.Header(headerRequestID, requestID)

		reqLogger := logger.With(log.FieldRequestID, requestID)
		ctx := log.WithContext(c.Request.Context(), reqLogger)
		ctx = notify.WithCollector(ctx, &notify.Collector{})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		fields := log.NewFields().
			WithHTTPRequest(c.Request.Method, c.Request.URL.Path, c.Request.URL.RawQuery).
			WithHTTPResponse(c.Writer.Status(), time.Since(start).Milliseconds()).
			WithClientIP(c.ClientIP())
		switch {
		case c.Writer.Status() >= 500:
			reqLogger.ErrorContext(ctx, "Request completed", fields.ToSlice()...)
		case c.Writer.Status() >= 400:
			reqLogger.WarnContext(ctx, "Request completed", fields.ToSlice()...)
		default:
			reqLogger.InfoContext(ctx, "Request completed", fields.ToSlice()...)
		}
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// rateLimit throttles mutating requests per client IP.
func rateLimit(rl *rateLimiter, logger *log.Logger) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(rl.window.Seconds()))
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		ip := c.ClientIP()
		if !rl.allow(ip) {
			logger.WarnContext(c.Request.Context(), "Rate limit exceeded",
				log.FieldClientIP, ip, log.FieldMethod, c.Request.Method, log.FieldPath, c.Request.URL.Path)
			c.Header("Retry-After", retryAfter)
			Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		c.Next()
	}
}

// recovery turns a panic into a 500 envelope.
func recovery(logger *log.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.ErrorContext(c.Request.Context(), "Handler panicked", "panic", err, log.FieldPath, c.Request.URL.Path)
		InternalError(c, "internal server error")
	})
}

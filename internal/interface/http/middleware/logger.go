package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xiebiao/bookshop/pkg/logger"
	"github.com/xiebiao/bookshop/pkg/tracing"
)

// RequestIDHeader 请求ID的HTTP头
const RequestIDHeader = "X-Request-ID"

// Logger 请求日志
// 为每个请求生成request_id(客户端传了就沿用),并把带request_id的Entry放进request context,
// 下游通过logger.FromContext取到同一个Entry
func Logger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		entry := log.WithField("request_id", requestID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), entry))

		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if userID := GetUserID(c); userID != 0 {
			fields["user_id"] = userID
		}
		if traceID := tracing.ExtractTraceID(c.Request.Context()); traceID != "" {
			fields["trace_id"] = traceID
		}
		entry = entry.WithFields(fields)

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("请求处理失败")
		case status >= 400:
			entry.Warn("请求被拒绝")
		default:
			entry.Info("请求完成")
		}
	}
}

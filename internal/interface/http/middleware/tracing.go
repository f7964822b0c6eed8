package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/xiebiao/bookshop/pkg/tracing"
)

// Tracing 为每个请求创建server span,并从请求头提取上游trace
func Tracing(tracerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracing.StartSpan(ctx, tracerName, c.Request.Method+" "+c.FullPath())
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
		)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
		var err error
		if len(c.Errors) > 0 {
			err = c.Errors.Last()
		}
		tracing.EndSpan(span, err)
	}
}

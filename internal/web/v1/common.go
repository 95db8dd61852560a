package v1

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/callerid-service/middleware"
)

func startRequestSpan(c *gin.Context) trace.Span {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.FullPath()),
	))
	c.Request = c.Request.WithContext(ctx)
	return span
}

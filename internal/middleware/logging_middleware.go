package middleware

import (
	"time"

	"github.com/annel0/transport-game/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RequestLogger снабжает каждый запрос API карты trace-ID и пишет по
// одной строке на запрос с уровнем по статусу ответа. Health-чеки и
// опрос /metrics не логируются: мониторинг дёргает их каждые
// несколько секунд и забивает лог служебным шумом.
type RequestLogger struct{}

func NewRequestLogger() *RequestLogger { return &RequestLogger{} }

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		// trace-id из OpenTelemetry, если спан уже создан; иначе свой.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		method := c.Request.Method
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}
		latency := time.Since(start)
		clientIP := c.ClientIP()

		switch {
		case status >= 500:
			logging.Error("[API] %s %s → %d (%s) ip=%s trace=%s", method, path, status, latency, clientIP, traceID)
		case status >= 400:
			logging.Warn("[API] %s %s → %d (%s) ip=%s trace=%s", method, path, status, latency, clientIP, traceID)
		default:
			logging.Info("[API] %s %s → %d %dБ (%s) ip=%s trace=%s", method, path, status, size, latency, clientIP, traceID)
		}
	}
}

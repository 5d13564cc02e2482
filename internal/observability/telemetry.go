package observability

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/annel0/transport-game/internal/logging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InitTelemetry настраивает трассировку сервиса карты: OTLP HTTP
// экспортер (endpoint берётся из стандартных переменных OTEL_*, по
// умолчанию localhost:4318), ресурс с именем сервиса и
// идентификатором инстанса, вероятностный сэмплер. Возвращает функцию
// shutdown, которую нужно вызвать при завершении приложения.
//
// Доля трассируемых корневых запросов регулируется переменной
// MAP_TRACE_RATIO (0..1); дочерние спаны наследуют решение родителя.
func InitTelemetry(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceNamespace("transport-game"),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
	if err != nil {
		return nil, err
	}

	ratio := traceRatio()
	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 Трассировка инициализирована (service=%s, ratio=%.2f)", serviceName, ratio)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

// traceRatio читает долю сэмплирования из окружения. Некорректные
// значения трактуются как 1 — трассировать всё.
func traceRatio() float64 {
	v := os.Getenv("MAP_TRACE_RATIO")
	if v == "" {
		return 1
	}
	r, err := strconv.ParseFloat(v, 64)
	if err != nil || r < 0 || r > 1 {
		logging.Warn("Некорректный MAP_TRACE_RATIO=%q, используется 1", v)
		return 1
	}
	return r
}

package eventbus

import (
	"context"
	"net/http"
	"time"

	"github.com/annel0/transport-game/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsExporter выдаёт Prometheus-метрики шины событий карты.
// Сводные счётчики (published/consumed/dropped) снимаются с интерфейса
// EventBus раз в секунду; разбивка по типам map.* собирается через
// собственную подписку экспортера.
type MetricsExporter struct {
	bus  EventBus
	sub  Subscription
	quit chan struct{}
	done chan struct{}

	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge
	byType    *prometheus.CounterVec
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики в
// глобальном регистре Prometheus. HTTP-сервер ещё не запускается.
func NewMetricsExporter(bus EventBus) *MetricsExporter {
	me := &MetricsExporter{
		bus:  bus,
		quit: make(chan struct{}),
		done: make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "map_events",
			Name:      "published_total",
			Help:      "Общее число опубликованных событий карты.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "map_events",
			Name:      "consumed_total",
			Help:      "Общее число событий, доставленных подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "map_events",
			Name:      "dropped_total",
			Help:      "Событий, отброшенных из-за back-pressure или ошибок.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "map_events",
			Name:      "inflight",
			Help:      "Событий в очереди, ещё не доставленных.",
		}),
		byType: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "map_events",
			Name:      "delivered_total",
			Help:      "Доставленные события карты по типам.",
		}, []string{"type"}),
	}

	prometheus.MustRegister(me.published, me.consumed, me.dropped, me.inflight, me.byType)

	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		me.byType.WithLabelValues(ev.EventType).Inc()
	})
	if err != nil {
		logging.Warn("Разбивка событий по типам недоступна: %v", err)
	} else {
		me.sub = sub
	}

	return me
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func (m *MetricsExporter) StartHTTP(addr string) {
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	go m.loop()
}

// Stop останавливает подписку и обновление метрик. HTTP-сервер живёт
// до завершения процесса.
func (m *MetricsExporter) Stop() {
	if m.sub != nil {
		m.sub.Unsubscribe()
	}
	close(m.quit)
	<-m.done
}

// loop раз в секунду переносит Stats шины в Prometheus. Counter можно
// только увеличивать, поэтому хранится прошлый снимок и прибавляется
// дельта.
func (m *MetricsExporter) loop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	defer close(m.done)

	var prev Stats

	for {
		select {
		case <-ticker.C:
			stats := m.bus.Metrics()

			if d := stats.Published - prev.Published; d > 0 {
				m.published.Add(float64(d))
			}
			if d := stats.Consumed - prev.Consumed; d > 0 {
				m.consumed.Add(float64(d))
			}
			if d := stats.Dropped - prev.Dropped; d > 0 {
				m.dropped.Add(float64(d))
			}
			m.inflight.Set(float64(stats.InFlight))

			prev = stats
		case <-m.quit:
			return
		}
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIMetrics собирает Prometheus-метрики REST API карты. Кроме
// HTTP-гистограмм считаются доменные показатели: сколько мутаций
// карты прошло через административные ручки и сколько байт сырых
// блоков регионов отдано читателям.
//
// Использование:
//
//	mw := middleware.NewAPIMetrics("map_api")
//	r.Use(mw.Handler())
//	mw.RegisterMetricsEndpoint(r)
//
// Метрики:
// * http_request_duration_seconds{method,route,status} — histogram
// * http_request_errors_total{method,route,status} — counter (4xx/5xx)
// * map_mutations_total{op} — counter успешных админ-операций
// * region_bytes_served_total — counter байт выданных блоков регионов
type APIMetrics struct {
	reqDuration *prometheus.HistogramVec
	reqErrors   *prometheus.CounterVec
	mutations   *prometheus.CounterVec
	regionBytes prometheus.Counter
}

// NewAPIMetrics создаёт middleware и регистрирует метрики в дефолтном регистре.
func NewAPIMetrics(service string) *APIMetrics {
	am := &APIMetrics{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"method", "route", "status"}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "http_request_errors_total",
			Help:      "Запросы, завершившиеся ошибкой (4xx/5xx).",
		}, []string{"method", "route", "status"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "map_mutations_total",
			Help:      "Успешные мутации карты по административным операциям.",
		}, []string{"op"}),
		regionBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: service,
			Name:      "region_bytes_served_total",
			Help:      "Байт сырых блоков регионов, отданных читателям.",
		}),
	}

	prometheus.MustRegister(am.reqDuration, am.reqErrors, am.mutations, am.regionBytes)
	return am
}

// Handler возвращает gin.HandlerFunc, которую нужно добавить через router.Use().
func (am *APIMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path // не-матченные маршруты
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		am.reqDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())

		if c.Writer.Status() >= 400 {
			am.reqErrors.WithLabelValues(method, route, status).Inc()
			return
		}

		switch {
		case route == "/api/map/region/:rx/:ry":
			am.regionBytes.Add(float64(c.Writer.Size()))
		case method == http.MethodPost && strings.HasPrefix(route, "/api/admin/"):
			am.mutations.WithLabelValues(strings.TrimPrefix(route, "/api/admin/")).Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics в указанный router.
func (am *APIMetrics) RegisterMetricsEndpoint(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// TestAPIMetricsCounters тестирует доменные счётчики REST API карты
func TestAPIMetricsCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Один экземпляр на бинарь: метрики живут в дефолтном регистре
	mw := NewAPIMetrics("test_api")

	r := gin.New()
	r.Use(mw.Handler())
	r.POST("/api/admin/road", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/admin/crossing", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })
	r.GET("/api/map/region/:rx/:ry", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/octet-stream", make([]byte, 128))
	})

	do := func(method, path string) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	}

	do(http.MethodPost, "/api/admin/road")
	do(http.MethodPost, "/api/admin/road")
	do(http.MethodPost, "/api/admin/crossing") // 422 — не мутация
	do(http.MethodGet, "/api/map/region/0/0")
	do(http.MethodGet, "/api/map/region/1/1")

	assert.Equal(t, float64(2), testutil.ToFloat64(mw.mutations.WithLabelValues("road")))
	assert.Equal(t, float64(0), testutil.ToFloat64(mw.mutations.WithLabelValues("crossing")))
	assert.Equal(t, float64(256), testutil.ToFloat64(mw.regionBytes))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(mw.reqErrors.WithLabelValues("POST", "/api/admin/crossing", "422")))
}

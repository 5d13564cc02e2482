package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTraceRatio тестирует чтение доли сэмплирования из окружения
func TestTraceRatio(t *testing.T) {
	t.Setenv("MAP_TRACE_RATIO", "")
	assert.Equal(t, 1.0, traceRatio())

	t.Setenv("MAP_TRACE_RATIO", "0.25")
	assert.Equal(t, 0.25, traceRatio())

	// Вне диапазона и мусор откатываются к 1
	t.Setenv("MAP_TRACE_RATIO", "7")
	assert.Equal(t, 1.0, traceRatio())

	t.Setenv("MAP_TRACE_RATIO", "не число")
	assert.Equal(t, 1.0, traceRatio())
}

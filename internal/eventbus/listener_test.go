package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDescribeEvent тестирует развёртывание полезных нагрузок событий
func TestDescribeEvent(t *testing.T) {
	ev, err := NewEnvelope(EventCrossing, 7, CrossingPayload{X: 3, Y: 4, Barred: true})
	require.NoError(t, err)
	assert.Equal(t, "переезд (3,4) закрыт", describeEvent(ev))

	ev, err = NewEnvelope(EventTileChanged, 5, TileChangedPayload{X: 1, Y: 2, Kind: "road"})
	require.NoError(t, err)
	assert.Equal(t, "тайл (1,2) теперь road", describeEvent(ev))

	ev, err = NewEnvelope(EventRoadWorks, 3, RoadWorksPayload{X: 9, Y: 8, Finished: true})
	require.NoError(t, err)
	assert.Equal(t, "дорожные работы (9,8) завершены", describeEvent(ev))

	// Незнакомый тип описывается конвертом
	ev, err = NewEnvelope("custom", 1, nil)
	require.NoError(t, err)
	assert.Contains(t, describeEvent(ev), "src=map-service")
}

// TestFilterMinPriority тестирует порог приоритета в фильтре подписки
func TestFilterMinPriority(t *testing.T) {
	low, err := NewEnvelope(EventTileChanged, 2, nil)
	require.NoError(t, err)
	high, err := NewEnvelope(EventTileChanged, 8, nil)
	require.NoError(t, err)

	f := Filter{MinPriority: 5}
	assert.False(t, matchFilter(low, f))
	assert.True(t, matchFilter(high, f))

	// Пустой фильтр пропускает всё
	assert.True(t, matchFilter(low, Filter{}))
}

// TestPublishRequiresEventType тестирует отказ на бестиповых конвертах
func TestPublishRequiresEventType(t *testing.T) {
	Init(NewMemoryBus(4))
	defer Init(nil)

	ctx := context.Background()
	assert.Error(t, Publish(ctx, &Envelope{Payload: []byte("{}")}))

	ev, err := NewEnvelope(EventTileChanged, 5, TileChangedPayload{X: 1, Y: 1})
	require.NoError(t, err)
	assert.NoError(t, Publish(ctx, ev))
}

package tests

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/transport-game/internal/eventbus"
)

func TestMemoryBusFilterDelivery(t *testing.T) {
	ctx := context.Background()
	bus := eventbus.NewMemoryBus(16)

	var tileEvents, allEvents int64

	subTile, err := bus.Subscribe(ctx, eventbus.Filter{Types: []string{eventbus.EventTileChanged}},
		func(ctx context.Context, ev *eventbus.Envelope) {
			atomic.AddInt64(&tileEvents, 1)
		})
	require.NoError(t, err)
	defer subTile.Unsubscribe()

	subAll, err := bus.Subscribe(ctx, eventbus.Filter{},
		func(ctx context.Context, ev *eventbus.Envelope) {
			atomic.AddInt64(&allEvents, 1)
		})
	require.NoError(t, err)
	defer subAll.Unsubscribe()

	publish := func(eventType string) {
		ev, err := eventbus.NewEnvelope(eventType, 5, map[string]string{"k": "v"})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, ev))
	}
	publish(eventbus.EventTileChanged)
	publish(eventbus.EventRegionSaved)
	publish(eventbus.EventCrossing)

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&allEvents) == 3
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(1), atomic.LoadInt64(&tileEvents),
		"фильтр по типу должен пропустить только tile_changed")

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
}

// TestGlobalPublishMapEvent проверяет путь, которым пользуется менеджер
// мира: глобальная шина, конверт с JSON payload'ом, декодирование на
// стороне подписчика.
func TestGlobalPublishMapEvent(t *testing.T) {
	ctx := context.Background()
	bus := eventbus.NewMemoryBus(16)
	eventbus.Init(bus)
	defer eventbus.Init(nil)

	got := make(chan eventbus.TileChangedPayload, 1)
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: []string{eventbus.EventTileChanged}},
		func(ctx context.Context, ev *eventbus.Envelope) {
			assert.Equal(t, "map-service", ev.Source)
			assert.Equal(t, 1, ev.Version)
			assert.NotEmpty(t, ev.ID)

			var p eventbus.TileChangedPayload
			if json.Unmarshal(ev.Payload, &p) == nil {
				select {
				case got <- p:
				default:
				}
			}
		})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	err = eventbus.PublishMapEvent(ctx, eventbus.EventTileChanged, 5,
		eventbus.TileChangedPayload{X: 12, Y: 34, Kind: "road"})
	require.NoError(t, err)

	select {
	case p := <-got:
		assert.Equal(t, uint32(12), p.X)
		assert.Equal(t, uint32(34), p.Y)
		assert.Equal(t, "road", p.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("событие не дошло до подписчика")
	}
}

// TestGlobalPublishWithoutBus: без инициализированной шины публикация
// тихо проглатывается — мир не должен зависеть от брокера.
func TestGlobalPublishWithoutBus(t *testing.T) {
	eventbus.Init(nil)
	err := eventbus.PublishMapEvent(context.Background(), eventbus.EventRoadWorks, 5,
		eventbus.RoadWorksPayload{X: 1, Y: 1})
	assert.NoError(t, err)
}

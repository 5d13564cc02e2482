package world

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/annel0/transport-game/internal/cache"
	"github.com/annel0/transport-game/internal/eventbus"
	"github.com/annel0/transport-game/internal/gamemap"
	"github.com/annel0/transport-game/internal/storage"
	"github.com/annel0/transport-game/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := gamemap.New(64, 64)
	require.NoError(t, err)

	meta := &storage.WorldMeta{ID: "test", SizeX: 64, SizeY: 64, Climate: "temperate"}
	mg := NewManager(m, meta, nil, nil)
	mg.Run(context.Background())
	t.Cleanup(mg.Stop)
	return mg
}

// TestManagerBuildRoad тестирует строительство дорог через менеджер
func TestManagerBuildRoad(t *testing.T) {
	mg := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mg.BuildRoad(ctx, 10, 10, tile.RoadBitsX, tile.RoadTypeRoad, tile.CompanyOwner(1)))

	view, err := mg.ViewTile(10, 10)
	require.NoError(t, err)
	assert.Equal(t, "road", view.Kind)
	assert.Equal(t, tile.RoadBitsX.String(), view.RoadBits)

	// Расширение существующего полотна
	require.NoError(t, mg.BuildRoad(ctx, 10, 10, tile.RoadBitSE, tile.RoadTypeRoad, tile.CompanyOwner(1)))
	view, err = mg.ViewTile(10, 10)
	require.NoError(t, err)
	assert.Equal(t, (tile.RoadBitsX | tile.RoadBitSE).String(), view.RoadBits)

	// Трамвай поверх дороги
	require.NoError(t, mg.BuildRoad(ctx, 10, 10, tile.RoadBitsY, tile.RoadTypeTram, tile.CompanyOwner(2)))
	view, err = mg.ViewTile(10, 10)
	require.NoError(t, err)
	assert.Equal(t, tile.RoadBitsY.String(), view.TramBits)
}

// TestManagerBuildRoadErrors тестирует отказ на непригодных тайлах
func TestManagerBuildRoadErrors(t *testing.T) {
	mg := newTestManager(t)
	ctx := context.Background()

	mg.Map().At(5, 5).MakeWater(tile.OwnerWater, 0)
	assert.Error(t, mg.BuildRoad(ctx, 5, 5, tile.RoadBitsX, tile.RoadTypeRoad, tile.OwnerNone))

	// Вне карты
	assert.Error(t, mg.BuildRoad(ctx, 500, 500, tile.RoadBitsX, tile.RoadTypeRoad, tile.OwnerNone))

	_, err := mg.ViewTile(500, 500)
	assert.Error(t, err)
}

// TestManagerRoadWorks тестирует жизненный цикл дорожных работ
func TestManagerRoadWorks(t *testing.T) {
	mg := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mg.BuildRoad(ctx, 7, 7, tile.RoadBitsX, tile.RoadTypeRoad, tile.OwnerTown))
	require.NoError(t, mg.StartRoadWorks(ctx, 7, 7))

	view, err := mg.ViewTile(7, 7)
	require.NoError(t, err)
	assert.True(t, view.RoadWorks, "Работы должны быть активны")

	// Повторный запуск на том же тайле - ошибка
	assert.Error(t, mg.StartRoadWorks(ctx, 7, 7))

	// Работы на пустой земле - ошибка
	assert.Error(t, mg.StartRoadWorks(ctx, 8, 8))

	// Тики доводят счётчик до нуля
	require.Eventually(t, func() bool {
		view, err := mg.ViewTile(7, 7)
		return err == nil && !view.RoadWorks
	}, 5*time.Second, 50*time.Millisecond, "Работы не завершились")
}

// TestManagerCrossing тестирует управление шлагбаумом
func TestManagerCrossing(t *testing.T) {
	mg := newTestManager(t)
	ctx := context.Background()

	mg.Map().At(20, 20).MakeRoadCrossing(tile.OwnerTown, tile.OwnerNone, tile.CompanyOwner(0),
		tile.AxisY, 0, tile.RoadTypeRoad.Bit(), 1)

	require.NoError(t, mg.SetCrossingBarred(ctx, 20, 20, true))
	view, err := mg.ViewTile(20, 20)
	require.NoError(t, err)
	assert.True(t, view.Barred)

	require.NoError(t, mg.SetCrossingBarred(ctx, 20, 20, false))
	view, err = mg.ViewTile(20, 20)
	require.NoError(t, err)
	assert.False(t, view.Barred)

	// Не переезд - ошибка
	assert.Error(t, mg.SetCrossingBarred(ctx, 21, 21, true))
}

// TestManagerDisallowedDirections тестирует односторонние дороги
func TestManagerDisallowedDirections(t *testing.T) {
	mg := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mg.BuildRoad(ctx, 3, 3, tile.RoadBitsY, tile.RoadTypeRoad, tile.OwnerTown))
	require.NoError(t, mg.SetDisallowedRoadDirections(ctx, 3, 3, tile.DisallowedSouthbound))

	got := mg.Map().At(3, 3).GetDisallowedRoadDirections()
	assert.Equal(t, tile.DisallowedSouthbound, got)

	assert.Error(t, mg.SetDisallowedRoadDirections(ctx, 4, 4, tile.DisallowedBoth))
}

// TestManagerTick тестирует продвижение тиков
func TestManagerTick(t *testing.T) {
	mg := newTestManager(t)

	require.Eventually(t, func() bool {
		return mg.CurrentTick() > 0
	}, 2*time.Second, 20*time.Millisecond, "Тики не идут")
}

// TestManagerRoadWorksEvents тестирует события дорожных работ на шине
func TestManagerRoadWorksEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(64)
	eventbus.Init(bus)
	defer eventbus.Init(nil)

	var started, finished atomic.Int32
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{eventbus.EventRoadWorks}},
		func(ctx context.Context, ev *eventbus.Envelope) {
			if ev.EventType != eventbus.EventRoadWorks {
				return
			}
			var p eventbus.RoadWorksPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return
			}
			if p.Finished {
				finished.Add(1)
			} else {
				started.Add(1)
			}
		})
	require.NoError(t, err)

	mg := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mg.BuildRoad(ctx, 12, 12, tile.RoadBitsX, tile.RoadTypeRoad, tile.OwnerTown))
	require.NoError(t, mg.StartRoadWorks(ctx, 12, 12))

	require.Eventually(t, func() bool {
		return started.Load() >= 1 && finished.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond, "События работ не пришли")
}

// TestManagerInvalidatesRegionCache тестирует сброс кеша регионов при
// мутациях карты: закешированный блок не должен переживать мутацию
func TestManagerInvalidatesRegionCache(t *testing.T) {
	m, err := gamemap.New(64, 64)
	require.NoError(t, err)

	meta := &storage.WorldMeta{ID: "cache", SizeX: 64, SizeY: 64}
	mg := NewManager(m, meta, nil, nil)

	rc := cache.NewMemoryRegionCache()
	mg.SetRegionCache(rc)
	mg.Run(context.Background())
	t.Cleanup(mg.Stop)

	ctx := context.Background()
	key := cache.RegionKey(0, 0)

	prime := func() {
		t.Helper()
		block, err := mg.ViewRegion(0, 0)
		require.NoError(t, err)
		require.NoError(t, rc.Set(ctx, key, block, time.Minute))
	}

	prime()
	require.NoError(t, mg.BuildRoad(ctx, 5, 5, tile.RoadBitsX, tile.RoadTypeRoad, tile.OwnerTown))
	_, err = rc.Get(ctx, key)
	assert.True(t, cache.IsCacheMiss(err), "Мутация должна выбрасывать регион из кеша")

	prime()
	require.NoError(t, mg.StartRoadWorks(ctx, 5, 5))
	_, err = rc.Get(ctx, key)
	assert.True(t, cache.IsCacheMiss(err), "Начало работ должно выбрасывать регион из кеша")

	// Завершение работ приходит из цикла тиков и тоже инвалидирует
	prime()
	require.Eventually(t, func() bool {
		_, err := rc.Get(ctx, key)
		return cache.IsCacheMiss(err)
	}, 5*time.Second, 50*time.Millisecond, "Завершение работ не сбросило кеш")
}

// TestManagerConcurrentSave тестирует одновременные сохранения из
// автосейва цикла тиков и внешних вызовов Save
func TestManagerConcurrentSave(t *testing.T) {
	m, err := gamemap.New(64, 64)
	require.NoError(t, err)

	store, err := storage.NewRegionStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	meta := &storage.WorldMeta{ID: "race", SizeX: 64, SizeY: 64}
	mg := NewManager(m, meta, nil, store)
	mg.SetAutosaveInterval(time.Millisecond) // автосейв на каждом тике
	mg.Run(context.Background())
	t.Cleanup(mg.Stop)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deadline := time.Now().Add(500 * time.Millisecond)
			for time.Now().Before(deadline) {
				assert.NoError(t, mg.Save(ctx))
			}
		}()
	}
	wg.Wait()
	assert.Greater(t, mg.CurrentTick(), uint64(0))
}

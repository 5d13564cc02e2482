package world

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/transport-game/internal/cache"
	"github.com/annel0/transport-game/internal/eventbus"
	"github.com/annel0/transport-game/internal/gamemap"
	"github.com/annel0/transport-game/internal/logging"
	"github.com/annel0/transport-game/internal/storage"
	"github.com/annel0/transport-game/internal/tile"
	"github.com/annel0/transport-game/internal/vec"
)

const tickInterval = 100 * time.Millisecond

// Manager владеет картой и координирует все процессы над ней: тики
// симуляции, дорожные работы, автосохранение. Все мутации карты идут
// через канал команд и выполняются в горутине тиков, читатели берут
// RLock.
type Manager struct {
	m     *gamemap.Map
	meta  *storage.WorldMeta
	towns []Town
	store *storage.RegionStore // nil - мир без персистентности

	regionCache cache.RegionCache // nil - читатели без кеша

	mu       sync.RWMutex
	commands chan func()

	// Тайлы с активными дорожными работами
	roadworks map[gamemap.TileIndex]struct{}

	lastSaveTime  time.Time
	autosaveEvery time.Duration

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewManager создаёт менеджер для готовой карты
func NewManager(m *gamemap.Map, meta *storage.WorldMeta, towns []Town, store *storage.RegionStore) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		m:             m,
		meta:          meta,
		towns:         towns,
		store:         store,
		commands:      make(chan func(), 1024),
		roadworks:     make(map[gamemap.TileIndex]struct{}),
		lastSaveTime:  time.Now(),
		autosaveEvery: 5 * time.Minute,
		ctx:           ctx,
		cancelFunc:    cancel,
	}
}

// SetAutosaveInterval задаёт период автосохранения. Вызывать до Run.
func (mg *Manager) SetAutosaveInterval(d time.Duration) {
	mg.autosaveEvery = d
}

// SetRegionCache подключает кеш регионов: каждая мутация карты
// выбрасывает из него затронутый регион. Вызывать до Run.
func (mg *Manager) SetRegionCache(c cache.RegionCache) {
	mg.regionCache = c
}

// Run запускает цикл тиков. Блокирует до отмены контекста.
func (mg *Manager) Run(parentCtx context.Context) {
	if parentCtx != nil {
		childCtx, cancel := context.WithCancel(parentCtx)
		mg.ctx = childCtx
		mg.cancelFunc = cancel
	}

	go mg.tickLoop()
}

// Stop останавливает менеджер, сбросив несохранённые регионы
func (mg *Manager) Stop() {
	mg.cancelFunc()
	if mg.store != nil {
		if err := mg.Save(context.Background()); err != nil {
			logging.Error("Ошибка финального сохранения: %v", err)
		}
	}
}

// tickLoop — сердце симуляции: один тик каждые 100мс, между тиками
// выполняются накопленные команды.
func (mg *Manager) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	logging.Info("⏱️ Цикл тиков запущен (интервал %v)", tickInterval)

	for {
		select {
		case <-mg.ctx.Done():
			logging.Info("⏱️ Цикл тиков остановлен на тике %d", mg.CurrentTick())
			return
		case cmd := <-mg.commands:
			cmd()
		case <-ticker.C:
			mg.processTick()
		}
	}
}

// processTick обрабатывает один тик: дорожные работы и автосохранение
func (mg *Manager) processTick() {
	mg.mu.Lock()
	mg.meta.Tick++
	mg.advanceRoadWorks()
	// lastSaveTime пишется в Save под mg.mu, читать его без
	// мьютекса нельзя: Save доступен и снаружи цикла тиков.
	autosaveDue := mg.store != nil && time.Since(mg.lastSaveTime) >= mg.autosaveEvery
	mg.mu.Unlock()

	if autosaveDue {
		if err := mg.Save(mg.ctx); err != nil {
			logging.Error("Ошибка автосохранения: %v", err)
		}
	}
}

// advanceRoadWorks продвигает счётчики дорожных работ. Вызывается под
// мьютексом из processTick.
func (mg *Manager) advanceRoadWorks() {
	for idx := range mg.roadworks {
		t := mg.m.Tile(idx)
		if !t.HasRoadWorks() {
			delete(mg.roadworks, idx)
			continue
		}

		if t.DecreaseRoadWorksCounter() {
			delete(mg.roadworks, idx)
			mg.m.MarkDirty(idx)
			mg.invalidateRegion(idx)

			x, y := mg.m.XY(idx)
			if err := eventbus.PublishMapEvent(mg.ctx, eventbus.EventRoadWorks, 3,
				eventbus.RoadWorksPayload{X: x, Y: y, Finished: true}); err != nil {
				logging.Warn("Событие завершения работ (%d,%d) потеряно: %v", x, y, err)
			}
		}
	}
}

// Save сбрасывает изменённые регионы и метаданные в хранилище
func (mg *Manager) Save(ctx context.Context) error {
	if mg.store == nil {
		return fmt.Errorf("мир без персистентности")
	}

	mg.mu.Lock()
	defer mg.mu.Unlock()

	flushed, err := mg.store.FlushDirty(ctx, mg.m)
	if err != nil {
		return fmt.Errorf("ошибка сброса регионов: %w", err)
	}
	if err := mg.store.SaveMeta(mg.meta); err != nil {
		return fmt.Errorf("ошибка сохранения метаданных: %w", err)
	}

	mg.lastSaveTime = time.Now()
	if flushed > 0 {
		logging.Info("💾 Автосохранение: %d регионов, тик %d", flushed, mg.meta.Tick)
	}
	return nil
}

// execute ставит мутацию в очередь команд и дожидается её выполнения
func (mg *Manager) execute(ctx context.Context, cmd func() error) error {
	done := make(chan error, 1)
	wrapped := func() {
		mg.mu.Lock()
		defer mg.mu.Unlock()
		done <- cmd()
	}

	select {
	case mg.commands <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-mg.ctx.Done():
		return fmt.Errorf("менеджер мира остановлен")
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// invalidateRegion выбрасывает регион тайла из кеша чтения, чтобы
// читатели не получали устаревший блок до конца TTL
func (mg *Manager) invalidateRegion(idx gamemap.TileIndex) {
	if mg.regionCache == nil {
		return
	}
	rc := mg.m.RegionOf(idx)
	if err := mg.regionCache.Invalidate(mg.ctx, cache.RegionKey(rc.X, rc.Y)); err != nil {
		logging.Warn("Кеш региона (%d,%d) не инвалидирован: %v", rc.X, rc.Y, err)
	}
}

// tileForRoadOp достаёт тайл для дорожной операции с проверкой координат
func (mg *Manager) tileForRoadOp(x, y uint32) (*tile.Tile, gamemap.TileIndex, error) {
	idx := mg.m.Index(x, y)
	if idx == gamemap.InvalidTileIndex {
		return nil, idx, fmt.Errorf("координаты (%d,%d) вне карты", x, y)
	}
	return mg.m.Tile(idx), idx, nil
}

// publishTileChanged отправляет событие изменения тайла
func (mg *Manager) publishTileChanged(x, y uint32, t *tile.Tile) {
	if err := eventbus.PublishMapEvent(mg.ctx, eventbus.EventTileChanged, 5,
		eventbus.TileChangedPayload{X: x, Y: y, Kind: t.Type().String()}); err != nil {
		logging.Warn("Событие изменения тайла (%d,%d) потеряно: %v", x, y, err)
	}
}

// BuildRoad строит или расширяет дорожное полотно указанного типа
func (mg *Manager) BuildRoad(ctx context.Context, x, y uint32, bits tile.RoadBits, rt tile.RoadType, owner tile.Owner) error {
	return mg.execute(ctx, func() error {
		t, idx, err := mg.tileForRoadOp(x, y)
		if err != nil {
			return err
		}

		switch {
		case t.IsNormalRoadTile():
			if t.HasTileRoadType(rt) {
				t.SetRoadBits(t.GetRoadBits(rt)|bits, rt)
			} else {
				t.SetRoadTypes(t.GetRoadTypes() | rt.Bit())
				t.SetRoadBits(bits, rt)
				t.SetRoadOwner(rt, owner)
			}
		case t.IsGround():
			if rt == tile.RoadTypeTram {
				t.MakeRoadNormal(bits, rt.Bit(), 0, tile.OwnerNone, owner)
			} else {
				t.MakeRoadNormal(bits, rt.Bit(), 0, owner, tile.OwnerNone)
			}
		default:
			return fmt.Errorf("на тайле (%d,%d) нельзя строить дорогу: %s", x, y, t.Type())
		}

		mg.m.MarkDirty(idx)
		mg.invalidateRegion(idx)
		mg.publishTileChanged(x, y, t)
		return nil
	})
}

// StartRoadWorks начинает дорожные работы на полотне
func (mg *Manager) StartRoadWorks(ctx context.Context, x, y uint32) error {
	return mg.execute(ctx, func() error {
		t, idx, err := mg.tileForRoadOp(x, y)
		if err != nil {
			return err
		}
		if !t.IsNormalRoadTile() {
			return fmt.Errorf("тайл (%d,%d) не дорожное полотно", x, y)
		}
		if t.HasRoadWorks() {
			return fmt.Errorf("на тайле (%d,%d) работы уже идут", x, y)
		}

		t.StartRoadWorks()
		mg.roadworks[idx] = struct{}{}
		mg.m.MarkDirty(idx)
		mg.invalidateRegion(idx)

		if err := eventbus.PublishMapEvent(mg.ctx, eventbus.EventRoadWorks, 3,
			eventbus.RoadWorksPayload{X: x, Y: y, Finished: false}); err != nil {
			logging.Warn("Событие начала работ (%d,%d) потеряно: %v", x, y, err)
		}
		return nil
	})
}

// SetCrossingBarred открывает или закрывает шлагбаум переезда
func (mg *Manager) SetCrossingBarred(ctx context.Context, x, y uint32, barred bool) error {
	return mg.execute(ctx, func() error {
		t, idx, err := mg.tileForRoadOp(x, y)
		if err != nil {
			return err
		}
		if !t.IsLevelCrossingTile() {
			return fmt.Errorf("тайл (%d,%d) не переезд", x, y)
		}

		t.SetCrossingBarred(barred)
		mg.m.MarkDirty(idx)
		mg.invalidateRegion(idx)

		if err := eventbus.PublishMapEvent(mg.ctx, eventbus.EventCrossing, 7,
			eventbus.CrossingPayload{X: x, Y: y, Barred: barred}); err != nil {
			logging.Warn("Событие переезда (%d,%d) потеряно: %v", x, y, err)
		}
		return nil
	})
}

// SetDisallowedRoadDirections задаёт запрет направлений одностороннего
// движения на дорожном полотне
func (mg *Manager) SetDisallowedRoadDirections(ctx context.Context, x, y uint32, drd tile.DisallowedRoadDirections) error {
	return mg.execute(ctx, func() error {
		t, idx, err := mg.tileForRoadOp(x, y)
		if err != nil {
			return err
		}
		if !t.IsNormalRoadTile() {
			return fmt.Errorf("тайл (%d,%d) не дорожное полотно", x, y)
		}

		t.SetDisallowedRoadDirections(drd)
		mg.m.MarkDirty(idx)
		mg.invalidateRegion(idx)
		mg.publishTileChanged(x, y, t)
		return nil
	})
}

// CurrentTick возвращает номер текущего тика
func (mg *Manager) CurrentTick() uint64 {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	return mg.meta.Tick
}

// Meta возвращает копию метаданных мира
func (mg *Manager) Meta() storage.WorldMeta {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	return *mg.meta
}

// Towns возвращает список городов
func (mg *Manager) Towns() []Town {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	return append([]Town(nil), mg.towns...)
}

// Map возвращает карту. Читатель обязан пользоваться View-методами
// менеджера либо не держать ссылку между тиками.
func (mg *Manager) Map() *gamemap.Map {
	return mg.m
}

// TileView — декодированное представление тайла для внешних читателей
type TileView struct {
	X       uint32 `json:"x"`
	Y       uint32 `json:"y"`
	Kind    string `json:"kind"`
	Height  uint8  `json:"height"`
	Raw     []byte `json:"raw"`

	RoadBits  string `json:"road_bits,omitempty"`
	TramBits  string `json:"tram_bits,omitempty"`
	Roadside  string `json:"roadside,omitempty"`
	RoadWorks bool   `json:"road_works,omitempty"`
	Barred    bool   `json:"barred,omitempty"`
	RoadAxis  string `json:"road_axis,omitempty"`
}

// ViewTile возвращает декодированное представление тайла
func (mg *Manager) ViewTile(x, y uint32) (*TileView, error) {
	mg.mu.RLock()
	defer mg.mu.RUnlock()

	t := mg.m.At(x, y)
	if t == nil {
		return nil, fmt.Errorf("координаты (%d,%d) вне карты", x, y)
	}

	raw := make([]byte, tile.RecordSize)
	t.Encode(raw)

	view := &TileView{
		X:      x,
		Y:      y,
		Kind:   t.Type().String(),
		Height: t.GetHeight(),
		Raw:    raw,
	}

	switch {
	case t.IsNormalRoadTile():
		view.RoadBits = t.GetRoadBits(tile.RoadTypeRoad).String()
		view.TramBits = t.GetRoadBits(tile.RoadTypeTram).String()
		view.Roadside = t.GetRoadside().String()
		view.RoadWorks = t.HasRoadWorks()
	case t.IsLevelCrossingTile():
		view.Barred = t.IsCrossingBarred()
		view.RoadAxis = t.GetCrossingRoadAxis().String()
	}

	return view, nil
}

// ViewRegion возвращает сырой блок региона для внешних читателей
func (mg *Manager) ViewRegion(rx, ry int) ([]byte, error) {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	return mg.m.EncodeRegion(vec.Vec2{X: rx, Y: ry})
}

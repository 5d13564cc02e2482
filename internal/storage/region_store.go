package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/annel0/transport-game/internal/eventbus"
	"github.com/annel0/transport-game/internal/gamemap"
	"github.com/annel0/transport-game/internal/logging"
	"github.com/annel0/transport-game/internal/vec"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/otel"
)

// ErrRegionNotFound возвращается при чтении региона, которого нет в базе
var ErrRegionNotFound = errors.New("регион не найден в хранилище")

// ErrWorldNotFound возвращается, когда база не содержит заголовка мира
var ErrWorldNotFound = errors.New("мир не найден в хранилище")

// WorldMeta — заголовок мира: всё, что нужно, чтобы восстановить карту
// из сырых регионов и продолжить симуляцию.
type WorldMeta struct {
	ID      string     `json:"id"` // UUID сохранения
	SizeX   uint32     `json:"size_x"`
	SizeY   uint32     `json:"size_y"`
	Seed    int64      `json:"seed"`
	Climate string     `json:"climate"`
	Tick    uint64     `json:"tick"`
	Towns   []TownMeta `json:"towns,omitempty"`
}

// TownMeta — запись города в заголовке мира. Сами тайлы города лежат
// в регионах, заголовок хранит только справочник.
type TownMeta struct {
	ID   uint16 `json:"id"`
	Name string `json:"name"`
	X    uint32 `json:"x"`
	Y    uint32 `json:"y"`
}

// RegionStore хранит zstd-сжатые сырые блоки регионов карты в BadgerDB.
// Ключи: "region:<rx>:<ry>" для блоков, "world:meta" для заголовка.
// Сырой блок региона — тот же формат, что EncodeRegion: раскладка
// записи тайла и есть формат хранения.
type RegionStore struct {
	db      *badger.DB
	dbPath  string
	enc     *zstd.Encoder
	dec     *zstd.Decoder
	mutex   sync.RWMutex
	isReady bool
}

// NewRegionStore открывает хранилище карты в указанной директории
func NewRegionStore(dataPath string) (*RegionStore, error) {
	dbPath := filepath.Join(dataPath, "map")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	return &RegionStore{
		db:      db,
		dbPath:  dbPath,
		enc:     enc,
		dec:     dec,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (rs *RegionStore) Close() error {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()

	if !rs.isReady {
		return nil
	}

	rs.isReady = false
	rs.enc.Close()
	rs.dec.Close()
	return rs.db.Close()
}

func regionDBKey(rc vec.Vec2) []byte {
	return []byte(fmt.Sprintf("region:%d:%d", rc.X, rc.Y))
}

// SaveMeta сохраняет заголовок мира
func (rs *RegionStore) SaveMeta(meta *WorldMeta) error {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()

	if !rs.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации заголовка мира: %w", err)
	}

	err = rs.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("world:meta"), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения заголовка в BadgerDB: %w", err)
	}
	return nil
}

// LoadMeta загружает заголовок мира; ErrWorldNotFound если база пуста
func (rs *RegionStore) LoadMeta() (*WorldMeta, error) {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()

	if !rs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var data []byte
	err := rs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("world:meta"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrWorldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения заголовка из BadgerDB: %w", err)
	}

	var meta WorldMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("ошибка десериализации заголовка: %w", err)
	}
	return &meta, nil
}

// SaveRegion сжимает и сохраняет сырой блок региона
func (rs *RegionStore) SaveRegion(rc vec.Vec2, raw []byte) error {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()

	if !rs.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	compressed := rs.enc.EncodeAll(raw, nil)

	err := rs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(regionDBKey(rc), compressed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения региона (%d,%d): %w", rc.X, rc.Y, err)
	}
	return nil
}

// LoadRegion читает и распаковывает сырой блок региона.
// Возвращает ErrRegionNotFound, если регион ещё не сохранялся.
func (rs *RegionStore) LoadRegion(rc vec.Vec2) ([]byte, error) {
	rs.mutex.RLock()
	defer rs.mutex.RUnlock()

	if !rs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var compressed []byte
	err := rs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(regionDBKey(rc))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			compressed = append([]byte{}, val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrRegionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения региона (%d,%d): %w", rc.X, rc.Y, err)
	}

	raw, err := rs.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки региона (%d,%d): %w", rc.X, rc.Y, err)
	}
	return raw, nil
}

// FlushDirty сохраняет все изменённые регионы карты и снимает с них
// пометки. Возвращает количество сохранённых регионов.
func (rs *RegionStore) FlushDirty(ctx context.Context, m *gamemap.Map) (int, error) {
	ctx, span := otel.Tracer("storage").Start(ctx, "RegionStore.FlushDirty")
	defer span.End()

	dirty := m.DirtyRegions()
	for _, rc := range dirty {
		raw, err := m.EncodeRegion(rc)
		if err != nil {
			return 0, err
		}
		if err := rs.SaveRegion(rc, raw); err != nil {
			return 0, err
		}
		m.ClearDirty(rc)

		if err := eventbus.PublishMapEvent(ctx, eventbus.EventRegionSaved, 2,
			eventbus.RegionSavedPayload{RX: rc.X, RY: rc.Y, Size: len(raw)}); err != nil {
			logging.Warn("Не удалось опубликовать событие сохранения региона: %v", err)
		}
	}
	if len(dirty) > 0 {
		logging.Debug("Сохранено регионов: %d", len(dirty))
	}
	return len(dirty), nil
}

// SaveWorld сохраняет заголовок и все регионы карты целиком
func (rs *RegionStore) SaveWorld(ctx context.Context, m *gamemap.Map, meta *WorldMeta) error {
	ctx, span := otel.Tracer("storage").Start(ctx, "RegionStore.SaveWorld")
	defer span.End()
	_ = ctx

	start := time.Now()
	if err := rs.SaveMeta(meta); err != nil {
		return err
	}
	for ry := uint32(0); ry < m.RegionsY(); ry++ {
		for rx := uint32(0); rx < m.RegionsX(); rx++ {
			rc := vec.Vec2{X: int(rx), Y: int(ry)}
			raw, err := m.EncodeRegion(rc)
			if err != nil {
				return err
			}
			if err := rs.SaveRegion(rc, raw); err != nil {
				return err
			}
			m.ClearDirty(rc)
		}
	}
	logging.Info("💾 Мир %s сохранён (%dx%d, %v)", meta.ID, m.SizeX(), m.SizeY(), time.Since(start))
	return nil
}

// LoadWorld восстанавливает карту из хранилища по заголовку
func (rs *RegionStore) LoadWorld(ctx context.Context) (*gamemap.Map, *WorldMeta, error) {
	ctx, span := otel.Tracer("storage").Start(ctx, "RegionStore.LoadWorld")
	defer span.End()
	_ = ctx

	meta, err := rs.LoadMeta()
	if err != nil {
		return nil, nil, err
	}

	m, err := gamemap.New(meta.SizeX, meta.SizeY)
	if err != nil {
		return nil, nil, fmt.Errorf("заголовок мира повреждён: %w", err)
	}

	for ry := uint32(0); ry < m.RegionsY(); ry++ {
		for rx := uint32(0); rx < m.RegionsX(); rx++ {
			rc := vec.Vec2{X: int(rx), Y: int(ry)}
			raw, err := rs.LoadRegion(rc)
			if err == ErrRegionNotFound {
				continue // регион ни разу не сохранялся — остаётся сгенерированным по умолчанию
			}
			if err != nil {
				return nil, nil, err
			}
			if err := m.DecodeRegion(rc, raw); err != nil {
				return nil, nil, err
			}
		}
	}

	logging.Info("🌍 Мир %s загружен (%dx%d, тик %d)", meta.ID, meta.SizeX, meta.SizeY, meta.Tick)
	return m, meta, nil
}

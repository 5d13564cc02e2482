package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/transport-game/internal/api"
	"github.com/annel0/transport-game/internal/auth"
	"github.com/annel0/transport-game/internal/cache"
	"github.com/annel0/transport-game/internal/config"
	"github.com/annel0/transport-game/internal/eventbus"
	"github.com/annel0/transport-game/internal/gamemap"
	"github.com/annel0/transport-game/internal/logging"
	"github.com/annel0/transport-game/internal/observability"
	"github.com/annel0/transport-game/internal/storage"
	"github.com/annel0/transport-game/internal/world"
	"github.com/google/uuid"
)

func main() {
	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🚀 Запуск сервиса карты...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load("")
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	metricsPort := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	logging.Info("📡 Конфигурация: REST=%s, метрики=%s, карта %dx%d (%s)",
		restPort, metricsPort, cfg.Map.Width, cfg.Map.Height, cfg.Map.Climate)

	if cfg.Auth.JWTSecret != "" {
		if err := auth.SetJWTSecret(cfg.Auth.JWTSecret); err != nil {
			logging.Error("❌ Некорректный JWT секрет: %v", err)
			log.Fatalf("❌ Некорректный JWT секрет: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === TELEMETRY ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, "map-service")
	if err != nil {
		logging.Warn("⚠️ Телеметрия недоступна: %v", err)
	} else {
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				logging.Error("Ошибка остановки телеметрии: %v", err)
			}
		}()
	}

	// === ШИНА СОБЫТИЙ ===
	// Рабочий вариант — NATS JetStream; без брокера остаёмся на
	// in-memory шине.
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		jsBus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream,
			time.Duration(cfg.EventBus.Retention)*time.Hour)
		if err != nil {
			logging.Warn("⚠️ NATS недоступен (%v), используется in-memory шина", err)
			bus = eventbus.NewMemoryBus(4096)
		} else {
			bus = jsBus
			defer jsBus.Close()
		}
	} else {
		bus = eventbus.NewMemoryBus(4096)
	}
	eventbus.Init(bus)

	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ Логирование событий шины не запущено: %v", err)
	}

	metricsExporter := eventbus.NewMetricsExporter(bus)
	metricsExporter.StartHTTP(metricsPort)
	defer metricsExporter.Stop()

	// === ХРАНИЛИЩЕ И МИР ===
	store, err := storage.NewRegionStore(cfg.Storage.DataPath)
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища: %v", err)
		log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
	}
	defer store.Close()

	m, meta, towns, err := loadOrGenerateWorld(ctx, cfg, store)
	if err != nil {
		logging.Error("❌ Ошибка подготовки мира: %v", err)
		log.Fatalf("❌ Ошибка подготовки мира: %v", err)
	}

	// === КЕШ РЕГИОНОВ ===
	var regionCache cache.RegionCache
	if cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedisRegionCache(cache.RedisConfig{
			URL:      cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, bus)
		if err != nil {
			logging.Warn("⚠️ Redis недоступен (%v), кеш регионов в памяти", err)
			regionCache = cache.NewMemoryRegionCache()
		} else {
			regionCache = redisCache
		}
	} else {
		regionCache = cache.NewMemoryRegionCache()
	}
	defer regionCache.Close()

	manager := world.NewManager(m, meta, towns, store)
	manager.SetRegionCache(regionCache)
	if cfg.Storage.AutosaveInterval > 0 {
		manager.SetAutosaveInterval(time.Duration(cfg.Storage.AutosaveInterval) * time.Second)
	}
	manager.Run(ctx)

	// === КАТАЛОГ СОХРАНЕНИЙ ===
	var catalog storage.SavegameCatalog
	if cfg.Catalog.MariaDSN != "" {
		mariaCatalog, err := storage.NewMariaSavegameCatalog(cfg.Catalog.MariaDSN)
		if err != nil {
			logging.Warn("⚠️ MariaDB недоступна (%v), каталог сохранений в памяти", err)
			catalog = storage.NewMemorySavegameCatalog()
		} else {
			catalog = mariaCatalog
		}
	} else {
		catalog = storage.NewMemorySavegameCatalog()
	}
	defer catalog.Close()

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:        restPort,
		Manager:     manager,
		RegionCache: regionCache,
		Catalog:     catalog,
		Auth:        cfg.Auth,
		SavegameDir: cfg.Storage.DataPath + "/saves",
		RegionTTL:   time.Duration(cfg.Cache.TTLSeconds) * time.Second,
	})

	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ REST API остановлен: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   📊 Метрики: http://localhost%s/metrics", metricsPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	manager.Stop()
	cancel()

	logging.Info("👋 Сервис карты остановлен")
}

// loadOrGenerateWorld загружает мир из хранилища; если его там нет,
// генерирует новый и сразу сохраняет.
func loadOrGenerateWorld(ctx context.Context, cfg *config.Config, store *storage.RegionStore) (*gamemap.Map, *storage.WorldMeta, []world.Town, error) {
	m, meta, err := store.LoadWorld(ctx)
	if err == nil {
		logging.Info("🌍 Мир загружен из хранилища: %dx%d, тик %d, городов: %d",
			meta.SizeX, meta.SizeY, meta.Tick, len(meta.Towns))
		return m, meta, world.TownsFromMeta(meta.Towns), nil
	}
	if !errors.Is(err, storage.ErrWorldNotFound) {
		return nil, nil, nil, fmt.Errorf("ошибка загрузки мира: %w", err)
	}

	logging.Info("🌍 Мир не найден, генерируется новый (сид %d)...", cfg.Map.Seed)
	m, towns, err := world.NewGenerator(cfg.Map).Generate()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ошибка генерации мира: %w", err)
	}

	meta = &storage.WorldMeta{
		ID:      uuid.NewString(),
		SizeX:   cfg.Map.Width,
		SizeY:   cfg.Map.Height,
		Seed:    cfg.Map.Seed,
		Climate: cfg.Map.Climate,
		Towns:   world.TownsToMeta(towns),
	}
	if err := store.SaveWorld(ctx, m, meta); err != nil {
		return nil, nil, nil, fmt.Errorf("ошибка первичного сохранения: %w", err)
	}

	return m, meta, towns, nil
}

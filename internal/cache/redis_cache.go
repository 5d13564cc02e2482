package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/transport-game/internal/eventbus"
	"github.com/annel0/transport-game/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisRegionCache реализует RegionCache поверх Redis.
// Инвалидация рассылается через шину событий (map.cache_invalidate):
// каждый экземпляр сервиса подписан и чистит свой Redis-неймспейс.
type RedisRegionCache struct {
	client *redis.Client
	bus    eventbus.EventBus
	sub    eventbus.Subscription

	// Метрики
	totalRequests int64
	cacheHits     int64
	cacheMisses   int64
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// NewRedisRegionCache создаёт Redis-кеш регионов.
// bus может быть nil — тогда инвалидация работает только локально.
func NewRedisRegionCache(cfg RedisConfig, bus eventbus.EventBus) (*RedisRegionCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.URL,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	c := &RedisRegionCache{client: rdb, bus: bus}

	if bus != nil {
		sub, err := bus.Subscribe(context.Background(),
			eventbus.Filter{Types: []string{eventbus.EventCacheInvalidate}},
			func(ctx context.Context, ev *eventbus.Envelope) {
				key := string(ev.Payload)
				if err := rdb.Del(ctx, key).Err(); err != nil {
					logging.Warn("Кеш: не удалось удалить ключ %s: %v", key, err)
				}
			})
		if err != nil {
			rdb.Close()
			return nil, fmt.Errorf("подписка на инвалидацию: %w", err)
		}
		c.sub = sub
	}

	logging.Info("Redis-кеш регионов инициализирован: %s", cfg.URL)
	return c, nil
}

// Get получает значение по ключу из Redis.
func (r *RedisRegionCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	atomic.AddInt64(&r.totalRequests, 1)

	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		atomic.AddInt64(&r.cacheMisses, 1)
		return nil, ErrCacheMiss
	}
	if err != nil {
		atomic.AddInt64(&r.cacheMisses, 1)
		return nil, fmt.Errorf("redis get: %w", err)
	}
	atomic.AddInt64(&r.cacheHits, 1)
	return val, nil
}

// Set сохраняет значение в Redis с указанным TTL.
func (r *RedisRegionCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete удаляет ключ из Redis.
func (r *RedisRegionCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Invalidate удаляет ключ локально и рассылает уведомление через шину.
func (r *RedisRegionCache) Invalidate(ctx context.Context, key string) error {
	if err := r.Delete(ctx, key); err != nil {
		return err
	}
	if r.bus == nil {
		return nil
	}
	ev, err := eventbus.NewEnvelope(eventbus.EventCacheInvalidate, 5, nil)
	if err != nil {
		return err
	}
	ev.Payload = []byte(key)
	return r.bus.Publish(ctx, ev)
}

// Metrics возвращает метрики кеша.
func (r *RedisRegionCache) Metrics() *CacheMetrics {
	total := atomic.LoadInt64(&r.totalRequests)
	hits := atomic.LoadInt64(&r.cacheHits)
	m := &CacheMetrics{
		TotalRequests: total,
		CacheHits:     hits,
		CacheMisses:   atomic.LoadInt64(&r.cacheMisses),
		LastUpdate:    time.Now(),
	}
	if total > 0 {
		m.HitRatio = float64(hits) / float64(total)
	}
	if n, err := r.client.DBSize(context.Background()).Result(); err == nil {
		m.TotalKeys = n
	}
	return m
}

// Close отписывается от шины и закрывает соединение с Redis.
func (r *RedisRegionCache) Close() error {
	if r.sub != nil {
		r.sub.Unsubscribe()
	}
	return r.client.Close()
}

package cache

import (
	"context"
	"fmt"
	"time"
)

// RegionCache определяет интерфейс кеширования сырых блоков регионов
// карты. Кеш стоит перед хранилищем на читающем пути REST API; мутации
// карты инвалидируют затронутые регионы через шину событий.
//
// Использование:
//
//	c, err := NewRedisRegionCache(cfg, bus)
//	data, err := c.Get(ctx, RegionKey(1, 2))
//	err = c.Set(ctx, RegionKey(1, 2), data, 60*time.Second)
//	err = c.Invalidate(ctx, RegionKey(1, 2))
type RegionCache interface {
	// Get получает значение по ключу из кеша.
	// Возвращает ErrCacheMiss если ключ не найден.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с указанным TTL.
	// TTL = 0 означает отсутствие истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ из кеша.
	Delete(ctx context.Context, key string) error

	// Invalidate удаляет ключ и рассылает уведомление другим экземплярам.
	Invalidate(ctx context.Context, key string) error

	// Metrics возвращает метрики кеша.
	Metrics() *CacheMetrics

	// Close закрывает соединение с кешем.
	Close() error
}

// RegionKey возвращает ключ кеша для региона карты
func RegionKey(rx, ry int) string {
	return fmt.Sprintf("region:%d:%d", rx, ry)
}

// CacheMetrics содержит метрики производительности кеша.
type CacheMetrics struct {
	TotalRequests int64     `json:"total_requests"`
	CacheHits     int64     `json:"cache_hits"`
	CacheMisses   int64     `json:"cache_misses"`
	HitRatio      float64   `json:"hit_ratio"`
	TotalKeys     int64     `json:"total_keys"`
	LastUpdate    time.Time `json:"last_update"`
}

// Ошибки кеша
var (
	ErrCacheMiss  = NewCacheError("cache miss")
	ErrInvalidKey = NewCacheError("invalid key")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return err == ErrCacheMiss
}

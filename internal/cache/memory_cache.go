package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryRegionCache реализует RegionCache в памяти процесса.
// Используется как fallback без Redis и в тестах.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryRegionCache struct {
	mu   sync.RWMutex
	data map[string]memoryEntry

	totalRequests int64
	cacheHits     int64
	cacheMisses   int64
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // нулевое время — без истечения
}

// NewMemoryRegionCache создаёт кеш регионов в памяти
func NewMemoryRegionCache() *MemoryRegionCache {
	return &MemoryRegionCache{
		data: make(map[string]memoryEntry),
	}
}

// Get получает значение по ключу.
func (m *MemoryRegionCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	entry, ok := m.data[key]
	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		if ok {
			delete(m.data, key)
		}
		m.cacheMisses++
		return nil, ErrCacheMiss
	}
	m.cacheHits++
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set сохраняет значение с указанным TTL.
func (m *MemoryRegionCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.data[key] = entry
	m.mu.Unlock()
	return nil
}

// Delete удаляет ключ.
func (m *MemoryRegionCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Invalidate для локального кеша эквивалентен Delete.
func (m *MemoryRegionCache) Invalidate(ctx context.Context, key string) error {
	return m.Delete(ctx, key)
}

// Metrics возвращает метрики кеша.
func (m *MemoryRegionCache) Metrics() *CacheMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics := &CacheMetrics{
		TotalRequests: m.totalRequests,
		CacheHits:     m.cacheHits,
		CacheMisses:   m.cacheMisses,
		TotalKeys:     int64(len(m.data)),
		LastUpdate:    time.Now(),
	}
	if m.totalRequests > 0 {
		metrics.HitRatio = float64(m.cacheHits) / float64(m.totalRequests)
	}
	return metrics
}

// Close освобождает память кеша.
func (m *MemoryRegionCache) Close() error {
	m.mu.Lock()
	m.data = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

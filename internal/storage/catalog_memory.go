package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemorySavegameCatalog реализует SavegameCatalog в памяти.
// Используется как fallback, когда MariaDB недоступна,
// или для CI/локальной разработки без БД.
// ВНИМАНИЕ: Каталог теряется при перезапуске сервера!
type MemorySavegameCatalog struct {
	mu     sync.RWMutex
	data   map[uint64]*SavegameEntry
	nextID uint64
}

// NewMemorySavegameCatalog создает новый каталог сохранений в памяти.
func NewMemorySavegameCatalog() *MemorySavegameCatalog {
	return &MemorySavegameCatalog{
		data:   make(map[uint64]*SavegameEntry),
		nextID: 1,
	}
}

// Register регистрирует новое сохранение в памяти.
func (c *MemorySavegameCatalog) Register(ctx context.Context, entry *SavegameEntry) (uint64, error) {
	if entry.Name == "" {
		return 0, fmt.Errorf("имя сохранения не может быть пустым")
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *entry
	stored.ID = c.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	c.data[stored.ID] = &stored
	c.nextID++

	entry.ID = stored.ID
	entry.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

// Get возвращает запись каталога по ID.
func (c *MemorySavegameCatalog) Get(ctx context.Context, id uint64) (*SavegameEntry, bool, error) {
	if id == 0 {
		return nil, false, fmt.Errorf("недействительный ID сохранения: %d", id)
	}

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[id]
	if !exists {
		return nil, false, nil
	}
	copied := *entry
	return &copied, true, nil
}

// List возвращает все записи каталога, новые первыми.
func (c *MemorySavegameCatalog) List(ctx context.Context) ([]*SavegameEntry, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*SavegameEntry, 0, len(c.data))
	for _, entry := range c.data {
		copied := *entry
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// Delete удаляет запись каталога из памяти.
func (c *MemorySavegameCatalog) Delete(ctx context.Context, id uint64) error {
	if id == 0 {
		return fmt.Errorf("недействительный ID сохранения: %d", id)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[id]; !exists {
		return fmt.Errorf("сохранение %d не найдено в каталоге", id)
	}
	delete(c.data, id)
	return nil
}

// Close освобождает ресурсы каталога (для памяти — ничего не делает).
func (c *MemorySavegameCatalog) Close() error {
	return nil
}

// Count возвращает количество записей в каталоге (для тестов).
func (c *MemorySavegameCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

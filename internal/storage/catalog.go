package storage

import (
	"context"
	"time"
)

// SavegameEntry описывает одну запись в каталоге сохранений.
type SavegameEntry struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	SizeX     int       `json:"size_x"`
	SizeY     int       `json:"size_y"`
	Tick      uint64    `json:"tick"`
	CreatedAt time.Time `json:"created_at"`
}

// SavegameCatalog — каталог сохранений: метаданные экспортированных
// файлов. Файлы лежат на диске, каталог хранит только описания.
type SavegameCatalog interface {
	// Register регистрирует новое сохранение и возвращает его ID
	Register(ctx context.Context, entry *SavegameEntry) (uint64, error)

	// Get возвращает запись по ID (false, если не найдена)
	Get(ctx context.Context, id uint64) (*SavegameEntry, bool, error)

	// List возвращает все записи, новые первыми
	List(ctx context.Context) ([]*SavegameEntry, error)

	// Delete удаляет запись каталога (сам файл не трогает)
	Delete(ctx context.Context, id uint64) error

	// Close освобождает ресурсы каталога
	Close() error
}

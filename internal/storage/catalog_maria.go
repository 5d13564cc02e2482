package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MariaSavegameCatalog реализует SavegameCatalog для базы данных MariaDB/MySQL.
// Использует таблицу savegames для хранения метаданных сохранений.
type MariaSavegameCatalog struct {
	db *sql.DB
}

// NewMariaSavegameCatalog создает новый каталог сохранений для MariaDB.
// Автоматически создает таблицу, если она не существует.
//
// Параметры:
//
//	dsn - строка подключения к базе данных (user:pass@tcp(host:port)/dbname)
//
// Возвращает:
//
//	*MariaSavegameCatalog - экземпляр каталога
//	error - ошибка при подключении или создании таблицы
func NewMariaSavegameCatalog(dsn string) (*MariaSavegameCatalog, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	catalog := &MariaSavegameCatalog{db: db}

	// Создаем таблицу, если она не существует
	if err := catalog.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return catalog, nil
}

// createTable создает таблицу savegames, если она не существует.
func (c *MariaSavegameCatalog) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS savegames (
			id         BIGINT       AUTO_INCREMENT PRIMARY KEY,
			name       VARCHAR(128) NOT NULL,
			path       VARCHAR(512) NOT NULL,
			size_x     INT          NOT NULL,
			size_y     INT          NOT NULL,
			tick       BIGINT       NOT NULL DEFAULT 0,
			created_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_created_at (created_at)
		) ENGINE=InnoDB
	`

	_, err := c.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы savegames: %w", err)
	}

	return nil
}

// Register регистрирует новое сохранение в базе данных.
func (c *MariaSavegameCatalog) Register(ctx context.Context, entry *SavegameEntry) (uint64, error) {
	if entry.Name == "" {
		return 0, fmt.Errorf("имя сохранения не может быть пустым")
	}

	query := `
		INSERT INTO savegames (name, path, size_x, size_y, tick)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := c.db.ExecContext(ctx, query, entry.Name, entry.Path, entry.SizeX, entry.SizeY, entry.Tick)
	if err != nil {
		return 0, fmt.Errorf("ошибка регистрации сохранения %s: %w", entry.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка получения ID сохранения: %w", err)
	}

	entry.ID = uint64(id)
	return entry.ID, nil
}

// Get возвращает запись каталога по ID.
func (c *MariaSavegameCatalog) Get(ctx context.Context, id uint64) (*SavegameEntry, bool, error) {
	if id == 0 {
		return nil, false, fmt.Errorf("недействительный ID сохранения: %d", id)
	}

	query := `SELECT id, name, path, size_x, size_y, tick, created_at FROM savegames WHERE id = ?`

	var entry SavegameEntry
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.Name, &entry.Path, &entry.SizeX, &entry.SizeY, &entry.Tick, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("ошибка загрузки сохранения %d: %w", id, err)
	}

	return &entry, true, nil
}

// List возвращает все записи каталога, новые первыми.
func (c *MariaSavegameCatalog) List(ctx context.Context) ([]*SavegameEntry, error) {
	query := `SELECT id, name, path, size_x, size_y, tick, created_at FROM savegames ORDER BY id DESC`

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка сохранений: %w", err)
	}
	defer rows.Close()

	var result []*SavegameEntry
	for rows.Next() {
		var entry SavegameEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Path, &entry.SizeX, &entry.SizeY, &entry.Tick, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения записи каталога: %w", err)
		}
		result = append(result, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обхода каталога: %w", err)
	}

	return result, nil
}

// Delete удаляет запись каталога из базы данных.
func (c *MariaSavegameCatalog) Delete(ctx context.Context, id uint64) error {
	if id == 0 {
		return fmt.Errorf("недействительный ID сохранения: %d", id)
	}

	query := `DELETE FROM savegames WHERE id = ?`

	result, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления сохранения %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("сохранение %d не найдено в каталоге", id)
	}

	return nil
}

// Close закрывает соединение с базой данных.
func (c *MariaSavegameCatalog) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

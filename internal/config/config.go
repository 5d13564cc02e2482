package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config — корневая структура конфигурации сервиса карты.
type Config struct {
	Map      MapConfig      `yaml:"map"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Cache    CacheConfig    `yaml:"cache"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Auth     AuthConfig     `yaml:"auth"`
}

// MapConfig описывает генерируемую карту. Климат выбирает прочтение
// общего бита снега/пустыни: кодек тайлов хранит голый флаг, а что он
// значит — решается здесь.
type MapConfig struct {
	Width   uint32 `yaml:"width"`
	Height  uint32 `yaml:"height"`
	Seed    int64  `yaml:"seed"`
	Climate string `yaml:"climate"` // temperate | arctic | tropic
}

// ServerConfig содержит сетевые настройки сервиса
type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// StorageConfig содержит настройки хранилища карты
type StorageConfig struct {
	DataPath         string `yaml:"data_path"`
	AutosaveInterval int    `yaml:"autosave_interval_seconds"`
}

// EventBusConfig содержит настройки шины событий
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// CacheConfig содержит настройки кеша регионов
type CacheConfig struct {
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	TTLSeconds    int    `yaml:"ttl_seconds"`
}

// CatalogConfig содержит настройки каталога сохранений
type CatalogConfig struct {
	MariaDSN string `yaml:"maria_dsn"` // пусто — каталог в памяти
}

// AuthConfig содержит учётные данные административного API
type AuthConfig struct {
	AdminUser     string `yaml:"admin_user"`
	AdminPassword string `yaml:"admin_password"`
	JWTSecret     string `yaml:"jwt_secret"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "MAP_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "MAP_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Default возвращает конфигурацию по умолчанию: умеренный климат,
// карта 256x256, локальное хранилище.
func Default() *Config {
	return &Config{
		Map: MapConfig{
			Width:   256,
			Height:  256,
			Seed:    1,
			Climate: "temperate",
		},
		Storage: StorageConfig{
			DataPath:         "data",
			AutosaveInterval: 300,
		},
		EventBus: EventBusConfig{
			Stream:    "MAPEVENTS",
			Retention: 24,
		},
		Cache: CacheConfig{
			TTLSeconds: 60,
		},
		Auth: AuthConfig{
			AdminUser: "admin",
		},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV MAP_CONFIG; без файла
// возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MAP_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	if cfg.Map.Climate == "" {
		cfg.Map.Climate = "temperate"
	}

	return cfg, nil
}

package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/annel0/transport-game/internal/auth"
	"github.com/annel0/transport-game/internal/cache"
	"github.com/annel0/transport-game/internal/config"
	"github.com/annel0/transport-game/internal/logging"
	"github.com/annel0/transport-game/internal/middleware"
	"github.com/annel0/transport-game/internal/storage"
	"github.com/annel0/transport-game/internal/tile"
	"github.com/annel0/transport-game/internal/world"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const defaultRegionTTL = 30 * time.Second

// RestServer представляет REST API сервис карты
type RestServer struct {
	router      *gin.Engine
	manager     *world.Manager
	regionCache cache.RegionCache       // nil - без кеша
	catalog     storage.SavegameCatalog // nil - без каталога сохранений
	authCfg     config.AuthConfig
	savegameDir string
	port        string
	regionTTL   time.Duration
	metrics     *SystemMetrics
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        string                  // порт для запуска сервера (":8088")
	Manager     *world.Manager          // менеджер мира
	RegionCache cache.RegionCache       // кеш регионов (опционально)
	Catalog     storage.SavegameCatalog // каталог сохранений (опционально)
	Auth        config.AuthConfig       // учётные данные административного API
	SavegameDir string                  // директория файлов сохранений
	RegionTTL   time.Duration           // TTL кеша регионов (0 — 30 секунд)
}

// NewRestServer создает новый REST API сервер
func NewRestServer(cfg Config) *RestServer {
	if cfg.Port == "" {
		cfg.Port = ":8088"
	}
	if cfg.SavegameDir == "" {
		cfg.SavegameDir = "saves"
	}
	if cfg.RegionTTL <= 0 {
		cfg.RegionTTL = defaultRegionTTL
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("map_api"))

	promMw := middleware.NewAPIMetrics("map_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:      router,
		manager:     cfg.Manager,
		regionCache: cfg.RegionCache,
		catalog:     cfg.Catalog,
		authCfg:     cfg.Auth,
		savegameDir: cfg.SavegameDir,
		port:        cfg.Port,
		regionTTL:   cfg.RegionTTL,
		metrics:     NewSystemMetrics(),
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")

	// Аутентификация (без JWT защиты)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", rs.handleLogin)
	}

	// Чтение карты (открытые эндпоинты)
	mapGroup := api.Group("/map")
	{
		mapGroup.GET("/info", rs.handleMapInfo)
		mapGroup.GET("/towns", rs.handleTowns)
		mapGroup.GET("/tile/:x/:y", rs.handleTile)
		mapGroup.GET("/region/:rx/:ry", rs.handleRegion)
	}

	// Защищенные эндпоинты (требуют JWT)
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.GET("/system/metrics", rs.handleSystemMetrics)

		// Административные операции над картой (только для админов)
		admin := protected.Group("/admin")
		admin.Use(rs.adminMiddleware())
		{
			admin.POST("/save", rs.handleSave)
			admin.GET("/savegames", rs.handleListSavegames)
			admin.POST("/road", rs.handleBuildRoad)
			admin.POST("/roadworks", rs.handleStartRoadWorks)
			admin.POST("/crossing", rs.handleSetCrossing)
			admin.POST("/disallow", rs.handleDisallowDirections)
		}
	}

	// Health check
	rs.router.GET("/health", rs.handleHealth)
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleLogin обрабатывает запрос на вход
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if !auth.CheckCredentials(req.Username, req.Password, rs.authCfg.AdminUser, rs.authCfg.AdminPassword) {
		c.JSON(http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Неверное имя пользователя или пароль",
		})
		return
	}

	token, err := auth.GenerateJWT(req.Username, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Ошибка генерации токена",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Message: "Успешная авторизация",
	})
}

// handleMapInfo возвращает метаданные мира
func (rs *RestServer) handleMapInfo(c *gin.Context) {
	meta := rs.manager.Meta()
	m := rs.manager.Map()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Метаданные карты",
		Data: map[string]interface{}{
			"id":        meta.ID,
			"size_x":    meta.SizeX,
			"size_y":    meta.SizeY,
			"seed":      meta.Seed,
			"climate":   meta.Climate,
			"tick":      rs.manager.CurrentTick(),
			"regions_x": m.RegionsX(),
			"regions_y": m.RegionsY(),
			"towns":     len(rs.manager.Towns()),
		},
	})
}

// handleTowns возвращает список городов
func (rs *RestServer) handleTowns(c *gin.Context) {
	towns := rs.manager.Towns()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список городов",
		Data: map[string]interface{}{
			"towns": towns,
			"total": len(towns),
		},
	})
}

// handleTile возвращает декодированное представление тайла
func (rs *RestServer) handleTile(c *gin.Context) {
	x, errX := strconv.ParseUint(c.Param("x"), 10, 32)
	y, errY := strconv.ParseUint(c.Param("y"), 10, 32)
	if errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверные координаты тайла",
		})
		return
	}

	view, err := rs.manager.ViewTile(uint32(x), uint32(y))
	if err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Тайл найден",
		Data:    view,
	})
}

// handleRegion возвращает сырой блок региона. Ответ кешируется:
// чтение идёт через кеш регионов, инвалидация — по событиям шины.
func (rs *RestServer) handleRegion(c *gin.Context) {
	rx, errX := strconv.Atoi(c.Param("rx"))
	ry, errY := strconv.Atoi(c.Param("ry"))
	if errX != nil || errY != nil || rx < 0 || ry < 0 {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверные координаты региона",
		})
		return
	}

	key := cache.RegionKey(rx, ry)
	if rs.regionCache != nil {
		if raw, err := rs.regionCache.Get(c.Request.Context(), key); err == nil {
			c.Data(http.StatusOK, "application/octet-stream", raw)
			return
		} else if !cache.IsCacheMiss(err) {
			logging.Warn("Кеш региона %s недоступен: %v", key, err)
		}
	}

	raw, err := rs.manager.ViewRegion(rx, ry)
	if err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	if rs.regionCache != nil {
		if err := rs.regionCache.Set(c.Request.Context(), key, raw, rs.regionTTL); err != nil {
			logging.Warn("Кеш региона %s не обновлён: %v", key, err)
		}
	}

	c.Data(http.StatusOK, "application/octet-stream", raw)
}

// handleSystemMetrics возвращает показатели процесса и системы
func (rs *RestServer) handleSystemMetrics(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()
	systemCPU, _ := rs.metrics.GetSystemCPUUsage()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Метрики получены",
		Data: map[string]interface{}{
			"uptime":         rs.metrics.GetUptime(),
			"memory_mb":      fmt.Sprintf("%.2f", memoryMB),
			"cpu_percent":    fmt.Sprintf("%.2f", cpuPercent),
			"system_cpu":     fmt.Sprintf("%.2f", systemCPU),
			"memory_details": rs.metrics.GetDetailedMemoryStats(),
			"tick":           rs.manager.CurrentTick(),
			"server_time":    time.Now().Unix(),
		},
	})
}

// SaveRequest представляет запрос на сохранение мира
type SaveRequest struct {
	Name   string `json:"name"`   // имя для каталога; пусто - только flush
	Export bool   `json:"export"` // выгрузить в файл сохранения
}

// handleSave сбрасывает изменённые регионы и при необходимости
// экспортирует мир в файл с регистрацией в каталоге
func (rs *RestServer) handleSave(c *gin.Context) {
	var req SaveRequest
	_ = c.ShouldBindJSON(&req) // пустое тело - просто flush

	if err := rs.manager.Save(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка сохранения: " + err.Error(),
		})
		return
	}

	data := map[string]interface{}{"tick": rs.manager.CurrentTick()}

	if req.Export {
		if req.Name == "" {
			req.Name = fmt.Sprintf("manual-%d", time.Now().Unix())
		}
		meta := rs.manager.Meta()
		path := filepath.Join(rs.savegameDir, req.Name+".sav")

		if err := storage.ExportSavegame(c.Request.Context(), path, rs.manager.Map(), &meta); err != nil {
			c.JSON(http.StatusInternalServerError, GenericResponse{
				Success: false,
				Message: "Ошибка экспорта: " + err.Error(),
			})
			return
		}
		data["path"] = path

		if rs.catalog != nil {
			entry := &storage.SavegameEntry{
				Name:  req.Name,
				Path:  path,
				SizeX: int(meta.SizeX),
				SizeY: int(meta.SizeY),
				Tick:  meta.Tick,
			}
			id, err := rs.catalog.Register(c.Request.Context(), entry)
			if err != nil {
				logging.Warn("Сохранение %s не попало в каталог: %v", req.Name, err)
			} else {
				data["catalog_id"] = id
			}
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Мир сохранён",
		Data:    data,
	})
}

// handleListSavegames возвращает каталог сохранений
func (rs *RestServer) handleListSavegames(c *gin.Context) {
	if rs.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Каталог сохранений не настроен",
		})
		return
	}

	entries, err := rs.catalog.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка чтения каталога: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Каталог сохранений",
		Data: map[string]interface{}{
			"savegames": entries,
			"total":     len(entries),
		},
	})
}

// BuildRoadRequest представляет запрос на строительство дороги
type BuildRoadRequest struct {
	X        uint32 `json:"x"`
	Y        uint32 `json:"y"`
	Bits     uint8  `json:"bits" binding:"required"` // маска NW|SW|SE|NE
	RoadType string `json:"road_type"`               // road (по умолчанию) | tram
	Owner    uint8  `json:"owner"`                   // номер компании; 15 - город
}

// handleBuildRoad строит или расширяет дорожное полотно
func (rs *RestServer) handleBuildRoad(c *gin.Context) {
	var req BuildRoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	rt := tile.RoadTypeRoad
	if req.RoadType == "tram" {
		rt = tile.RoadTypeTram
	}
	if req.Bits > uint8(tile.RoadBitsAll) {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Недопустимая маска дорожных битов",
		})
		return
	}

	err := rs.manager.BuildRoad(c.Request.Context(), req.X, req.Y,
		tile.RoadBits(req.Bits), rt, tile.Owner(req.Owner))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Дорога построена",
	})
}

// TileOpRequest представляет запрос операции над тайлом
type TileOpRequest struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// handleStartRoadWorks начинает дорожные работы
func (rs *RestServer) handleStartRoadWorks(c *gin.Context) {
	var req TileOpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	if err := rs.manager.StartRoadWorks(c.Request.Context(), req.X, req.Y); err != nil {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Дорожные работы начаты",
	})
}

// CrossingRequest представляет запрос управления шлагбаумом
type CrossingRequest struct {
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
	Barred bool   `json:"barred"`
}

// handleSetCrossing открывает или закрывает шлагбаум переезда
func (rs *RestServer) handleSetCrossing(c *gin.Context) {
	var req CrossingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	if err := rs.manager.SetCrossingBarred(c.Request.Context(), req.X, req.Y, req.Barred); err != nil {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние переезда обновлено",
	})
}

// DisallowRequest представляет запрос на одностороннее движение
type DisallowRequest struct {
	X          uint32 `json:"x"`
	Y          uint32 `json:"y"`
	Directions uint8  `json:"directions"` // 0=нет, 1=southbound, 2=northbound, 3=оба
}

// handleDisallowDirections задаёт запрет направлений движения
func (rs *RestServer) handleDisallowDirections(c *gin.Context) {
	var req DisallowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	if req.Directions > uint8(tile.DisallowedBoth) {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Недопустимое значение directions",
		})
		return
	}

	err := rs.manager.SetDisallowedRoadDirections(c.Request.Context(), req.X, req.Y,
		tile.DisallowedRoadDirections(req.Directions))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Ограничения движения обновлены",
	})
}

// handleHealth проверка состояния сервиса
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"tick":   rs.manager.CurrentTick(),
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер
func (rs *RestServer) Start() error {
	logging.Info("🌐 REST API запущен на %s", rs.port)
	return rs.router.Run(rs.port)
}

// Router возвращает gin-роутер (для тестов через httptest)
func (rs *RestServer) Router() http.Handler {
	return rs.router
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annel0/transport-game/internal/cache"
	"github.com/annel0/transport-game/internal/config"
	"github.com/annel0/transport-game/internal/gamemap"
	"github.com/annel0/transport-game/internal/storage"
	"github.com/annel0/transport-game/internal/tile"
	"github.com/annel0/transport-game/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRestServer тестирует REST API целиком: один сервер на все
// подтесты (Prometheus-метрики регистрируются в общем регистре).
func TestRestServer(t *testing.T) {
	m, err := gamemap.New(64, 64)
	require.NoError(t, err)
	m.At(10, 10).MakeRoadNormal(tile.RoadBitsX, tile.RoadTypeRoad.Bit(), 1, tile.OwnerTown, tile.OwnerNone)

	meta := &storage.WorldMeta{ID: "api-test", SizeX: 64, SizeY: 64, Climate: "temperate"}
	mg := world.NewManager(m, meta, []world.Town{{ID: 1, Name: "Тестоград", X: 10, Y: 10}}, nil)

	regionCache := cache.NewMemoryRegionCache()
	mg.SetRegionCache(regionCache)
	mg.Run(context.Background())
	t.Cleanup(mg.Stop)

	srv := NewRestServer(Config{
		Manager:     mg,
		RegionCache: regionCache,
		Catalog:     storage.NewMemorySavegameCatalog(),
		Auth:        config.AuthConfig{AdminUser: "admin", AdminPassword: "secret"},
		SavegameDir: t.TempDir(),
		RegionTTL:   time.Minute,
	})
	require.Equal(t, time.Minute, srv.regionTTL)

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		return w
	}

	var token string

	t.Run("Health", func(t *testing.T) {
		w := do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Login", func(t *testing.T) {
		w := do(http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "secret"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.True(t, resp.Success)
		require.NotEmpty(t, resp.Token)
		token = resp.Token

		w = do(http.MethodPost, "/api/auth/login", "", LoginRequest{Username: "admin", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MapInfo", func(t *testing.T) {
		w := do(http.MethodGet, "/api/map/info", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp GenericResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(64), data["size_x"])
		assert.Equal(t, float64(1), data["towns"])
	})

	t.Run("Tile", func(t *testing.T) {
		w := do(http.MethodGet, "/api/map/tile/10/10", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp GenericResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "road", data["kind"])

		w = do(http.MethodGet, "/api/map/tile/999/999", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Region", func(t *testing.T) {
		w := do(http.MethodGet, "/api/map/region/0/0", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, gamemap.RegionByteSize, w.Body.Len())

		// Повторное чтение идёт из кеша и даёт тот же блок
		first := append([]byte(nil), w.Body.Bytes()...)
		w = do(http.MethodGet, "/api/map/region/0/0", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, first, w.Body.Bytes())

		w = do(http.MethodGet, "/api/map/region/9/9", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("AdminRequiresToken", func(t *testing.T) {
		w := do(http.MethodPost, "/api/admin/road", "", BuildRoadRequest{X: 1, Y: 1, Bits: uint8(tile.RoadBitsX)})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = do(http.MethodPost, "/api/admin/road", "garbage", BuildRoadRequest{X: 1, Y: 1, Bits: uint8(tile.RoadBitsX)})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AdminBuildRoad", func(t *testing.T) {
		require.NotEmpty(t, token)

		w := do(http.MethodPost, "/api/admin/road", token,
			BuildRoadRequest{X: 5, Y: 5, Bits: uint8(tile.RoadBitsY), Owner: uint8(tile.OwnerTown)})
		require.Equal(t, http.StatusOK, w.Code)

		view, err := mg.ViewTile(5, 5)
		require.NoError(t, err)
		assert.Equal(t, tile.RoadBitsY.String(), view.RoadBits)

		// На воде строить нельзя
		mg.Map().At(6, 6).MakeWater(tile.OwnerWater, 0)
		w = do(http.MethodPost, "/api/admin/road", token,
			BuildRoadRequest{X: 6, Y: 6, Bits: uint8(tile.RoadBitsX)})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("RegionCacheInvalidation", func(t *testing.T) {
		require.NotEmpty(t, token)

		w := do(http.MethodGet, "/api/map/region/0/0", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		before := append([]byte(nil), w.Body.Bytes()...)

		w = do(http.MethodPost, "/api/admin/road", token,
			BuildRoadRequest{X: 7, Y: 7, Bits: uint8(tile.RoadBitsX), Owner: uint8(tile.OwnerTown)})
		require.Equal(t, http.StatusOK, w.Code)

		// Читатель видит мутацию сразу, не дожидаясь истечения TTL
		w = do(http.MethodGet, "/api/map/region/0/0", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NotEqual(t, before, w.Body.Bytes())

		off := (7*gamemap.RegionSize + 7) * tile.RecordSize
		var tl tile.Tile
		tl.Decode(w.Body.Bytes()[off : off+tile.RecordSize])
		assert.True(t, tl.IsNormalRoadTile())
		assert.Equal(t, tile.RoadBitsX, tl.GetRoadBits(tile.RoadTypeRoad))
	})

	t.Run("AdminRoadWorks", func(t *testing.T) {
		w := do(http.MethodPost, "/api/admin/roadworks", token, TileOpRequest{X: 10, Y: 10})
		require.Equal(t, http.StatusOK, w.Code)

		view, err := mg.ViewTile(10, 10)
		require.NoError(t, err)
		assert.True(t, view.RoadWorks)
	})

	t.Run("AdminSaveExport", func(t *testing.T) {
		// Мир без персистентности: flush невозможен
		w := do(http.MethodPost, "/api/admin/save", token, SaveRequest{Export: true, Name: "snapshot"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("SavegameCatalog", func(t *testing.T) {
		w := do(http.MethodGet, "/api/admin/savegames", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp GenericResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})
}

package world

import (
	"fmt"
	"math/rand"

	"github.com/annel0/transport-game/internal/config"
	"github.com/annel0/transport-game/internal/gamemap"
	"github.com/annel0/transport-game/internal/logging"
	"github.com/annel0/transport-game/internal/storage"
	"github.com/annel0/transport-game/internal/tile"
	"github.com/annel0/transport-game/internal/util"
)

// Константы высот для генерации
const (
	WaterMax   = 0.34 // Ниже - вода
	TreesMin   = 0.62 // Выше (по влажности) - деревья
	SnowLine   = 5    // Высота снеговой линии (арктический климат)
	DesertMax  = 0.30 // Ниже (по влажности) - пустыня (тропический климат)
	MaxHeight  = 15   // Максимальная высота тайла
	townRoadRT = tile.RoadTypeRoad
)

// Town описывает сгенерированный город
type Town struct {
	ID   tile.TownID `json:"id"`
	Name string      `json:"name"`
	X    uint32      `json:"x"`
	Y    uint32      `json:"y"`
}

// TownsToMeta переводит города в записи заголовка мира
func TownsToMeta(towns []Town) []storage.TownMeta {
	out := make([]storage.TownMeta, len(towns))
	for i, t := range towns {
		out[i] = storage.TownMeta{ID: uint16(t.ID), Name: t.Name, X: t.X, Y: t.Y}
	}
	return out
}

// TownsFromMeta восстанавливает города из заголовка мира
func TownsFromMeta(metas []storage.TownMeta) []Town {
	out := make([]Town, len(metas))
	for i, tm := range metas {
		out[i] = Town{ID: tile.TownID(tm.ID), Name: tm.Name, X: tm.X, Y: tm.Y}
	}
	return out
}

// Generator генерирует ландшафт карты: рельеф, воду, леса, города
// с дорогами и магистральную железную дорогу с переездами.
type Generator struct {
	cfg      config.MapConfig
	height   *util.NoiseSource // Шум высот
	moisture *util.NoiseSource // Шум влажности (леса/пустыни)
	rng      *rand.Rand

	HeightScale   float64 // Масштаб шума высот
	MoistureScale float64 // Масштаб шума влажности
}

// NewGenerator создаёт генератор карты для указанной конфигурации
func NewGenerator(cfg config.MapConfig) *Generator {
	return &Generator{
		cfg:           cfg,
		height:        util.NewNoiseSource(cfg.Seed),
		moisture:      util.NewNoiseSource(cfg.Seed + 42),
		rng:           rand.New(rand.NewSource(cfg.Seed)),
		HeightScale:   0.03, // Настройка сглаженности ландшафта
		MoistureScale: 0.015,
	}
}

// Generate создаёт карту целиком: рельеф, железнодорожную магистраль,
// города и дороги между ними. Результат детерминирован сидом.
func (g *Generator) Generate() (*gamemap.Map, []Town, error) {
	m, err := gamemap.New(g.cfg.Width, g.cfg.Height)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка создания карты: %w", err)
	}

	g.generateTerrain(m)
	g.generateRailTrunk(m)
	towns := g.generateTowns(m)
	g.connectTowns(m, towns)
	g.applyClimate(m)

	logging.Info("🗺️ Карта сгенерирована: %dx%d, сид %d, городов: %d",
		g.cfg.Width, g.cfg.Height, g.cfg.Seed, len(towns))
	return m, towns, nil
}

// generateTerrain заполняет рельеф: воду, землю, леса
func (g *Generator) generateTerrain(m *gamemap.Map) {
	for y := uint32(0); y < m.SizeY(); y++ {
		for x := uint32(0); x < m.SizeX(); x++ {
			t := m.At(x, y)
			if t.IsVoid() {
				continue // Граница карты остаётся пустотой
			}

			h := g.height.At2D(float64(x)*g.HeightScale, float64(y)*g.HeightScale)
			wet := g.moisture.At2D(float64(x)*g.MoistureScale, float64(y)*g.MoistureScale)

			if h < WaterMax {
				t.MakeWater(tile.OwnerWater, uint8(g.rng.Intn(256)))
				t.SetHeight(0)
				continue
			}

			level := g.heightLevel(h)
			if wet > TreesMin {
				t.MakeTrees(uint8(g.rng.Intn(4)))
			} else {
				t.MakeClear()
			}
			t.SetHeight(level)
		}
	}
}

// heightLevel переводит значение шума [WaterMax..1] в высоту тайла [1..MaxHeight]
func (g *Generator) heightLevel(h float64) uint8 {
	scaled := (h - WaterMax) / (1.0 - WaterMax) * float64(MaxHeight)
	level := uint8(scaled) + 1
	if level > MaxHeight {
		level = MaxHeight
	}
	return level
}

// generateRailTrunk прокладывает магистральную железную дорогу вдоль оси X.
// Вода разрывает магистраль; дороги, построенные позже, образуют переезды.
func (g *Generator) generateRailTrunk(m *gamemap.Map) {
	trunkY := m.SizeY() / 2
	placed := 0

	for x := uint32(1); x < m.SizeX()-1; x++ {
		t := m.At(x, trunkY)
		if t.IsVoid() || t.IsWater() {
			continue
		}
		t.MakeRailTrack(tile.CompanyOwner(0), tile.TrackBitsX, 0)
		m.MarkDirty(m.Index(x, trunkY))
		placed++
	}

	logging.Debug("🚂 Магистраль на y=%d: %d тайлов", trunkY, placed)
}

// generateTowns размещает города по сетке ячеек, по одному на ячейку.
// Город — перекрёсток дорог с домами вокруг.
func (g *Generator) generateTowns(m *gamemap.Map) []Town {
	// Для каждой ячейки 128x128 пытаемся поставить один город
	const cell = 128
	var towns []Town
	nextID := tile.TownID(1)

	for cy := uint32(0); cy+cell <= m.SizeY(); cy += cell {
		for cx := uint32(0); cx+cell <= m.SizeX(); cx += cell {
			// Несколько случайных попыток найти сушу в глубине ячейки
			for attempt := 0; attempt < 8; attempt++ {
				x := cx + 16 + uint32(g.rng.Intn(cell-32))
				y := cy + 16 + uint32(g.rng.Intn(cell-32))
				if !g.townSiteOK(m, x, y) {
					continue
				}

				town := Town{
					ID:   nextID,
					Name: fmt.Sprintf("Город-%d", nextID),
					X:    x,
					Y:    y,
				}
				g.buildTown(m, town)
				towns = append(towns, town)
				nextID++
				break
			}
		}
	}

	return towns
}

// townSiteOK проверяет, что окрестность 5x5 целиком на суше
func (g *Generator) townSiteOK(m *gamemap.Map, x, y uint32) bool {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			t := m.At(uint32(int64(x)+int64(dx)), uint32(int64(y)+int64(dy)))
			if t == nil || !t.IsGround() {
				return false
			}
		}
	}
	return true
}

// buildTown строит город: крестовой перекрёсток дорог и дома вокруг
func (g *Generator) buildTown(m *gamemap.Map, town Town) {
	armLen := 2 + g.rng.Intn(3)

	// Дороги крестом от центра
	for i := -armLen; i <= armLen; i++ {
		g.addRoadBits(m, uint32(int64(town.X)+int64(i)), town.Y, tile.RoadBitsX, town.ID)
		g.addRoadBits(m, town.X, uint32(int64(town.Y)+int64(i)), tile.RoadBitsY, town.ID)
	}

	// Дома вдоль дорог
	for i := -armLen; i <= armLen; i++ {
		if i == 0 {
			continue
		}
		for _, dy := range []int64{-1, 1} {
			x := uint32(int64(town.X) + int64(i))
			y := uint32(int64(town.Y) + dy)
			t := m.At(x, y)
			if t != nil && t.IsGround() && g.rng.Float64() < 0.6 {
				t.MakeHouse(town.ID, uint8(g.rng.Intn(256)))
				m.MarkDirty(m.Index(x, y))
			}
		}
	}
}

// connectTowns соединяет соседние города Г-образными дорогами
func (g *Generator) connectTowns(m *gamemap.Map, towns []Town) {
	for i := 1; i < len(towns); i++ {
		g.buildRoadRoute(m, towns[i-1], towns[i])
	}
}

// buildRoadRoute прокладывает дорогу между городами: сначала по X,
// затем по Y. Одиночная вода перекрывается мостом, рельсы — переездом.
func (g *Generator) buildRoadRoute(m *gamemap.Map, from, to Town) {
	x, y := from.X, from.Y

	for x != to.X {
		var d tile.DiagDirection
		if x < to.X {
			d = tile.DiagDirSW // +X
		} else {
			d = tile.DiagDirNE // -X
		}
		x = g.roadStep(m, x, y, d, from.ID)
	}
	for y != to.Y {
		var d tile.DiagDirection
		if y < to.Y {
			d = tile.DiagDirSE // +Y
		} else {
			d = tile.DiagDirNW // -Y
		}
		y = g.roadStep(m, x, y, d, from.ID)
	}
}

// roadStep делает один шаг дороги в направлении d и возвращает новую
// координату вдоль оси движения. Если следующий тайл — одиночная вода,
// строит мост и перешагивает её.
func (g *Generator) roadStep(m *gamemap.Map, x, y uint32, d tile.DiagDirection, town tile.TownID) uint32 {
	nx, ny := stepCoords(x, y, d)

	next := m.At(nx, ny)
	if next != nil && next.IsWater() {
		// Одиночная вода: мост через неё
		fx, fy := stepCoords(nx, ny, d)
		far := m.At(fx, fy)
		if far != nil && !far.IsWater() && !far.IsVoid() {
			g.buildRoadBridge(m, x, y, fx, fy, d, town)
			return along(fx, fy, d)
		}
		// Широкая вода: дорога обрывается на берегу
		return along(nx, ny, d)
	}

	// Выходной бит на текущем тайле, входной - на следующем
	g.addRoadBits(m, x, y, d.RoadBits(), town)
	g.addRoadBits(m, nx, ny, d.Reverse().RoadBits(), town)
	return along(nx, ny, d)
}

// buildRoadBridge ставит рампы моста на двух берегах
func (g *Generator) buildRoadBridge(m *gamemap.Map, x1, y1, x2, y2 uint32, d tile.DiagDirection, town tile.TownID) {
	bridgeType := uint8(g.rng.Intn(4))

	near := m.At(x1, y1)
	if near.IsNormalRoadTile() {
		near.MakeRoadBridgeFromRoad(bridgeType, d)
	} else {
		near.MakeRoadBridgeRamp(tile.OwnerTown, tile.OwnerNone, bridgeType, d, townRoadRT.Bit(), town)
	}
	m.MarkDirty(m.Index(x1, y1))

	far := m.At(x2, y2)
	far.MakeRoadBridgeRamp(tile.OwnerTown, tile.OwnerNone, bridgeType, d.Reverse(), townRoadRT.Bit(), town)
	m.MarkDirty(m.Index(x2, y2))
}

// addRoadBits добавляет дорожные биты на тайл, создавая полотно,
// расширяя существующее или превращая рельсы в переезд.
func (g *Generator) addRoadBits(m *gamemap.Map, x, y uint32, bits tile.RoadBits, town tile.TownID) {
	t := m.At(x, y)
	if t == nil || t.IsVoid() || t.IsWater() {
		return
	}

	switch {
	case t.IsNormalRoadTile():
		t.SetRoadBits(t.GetRoadBits(townRoadRT)|bits, townRoadRT)

	case t.IsRailTrackTile():
		// Переезд: ось дороги перпендикулярна рельсам
		railAxis := tile.AxisX
		if t.GetRailTrackBits() == tile.TrackBitsY {
			railAxis = tile.AxisY
		}
		t.MakeRoadCrossing(tile.OwnerTown, tile.OwnerNone, t.GetOwner(),
			railAxis.Other(), t.GetRailType(), townRoadRT.Bit(), town)

	case t.IsLevelCrossingTile(), t.IsRoadBridgeTile(), t.IsHouse():
		// Уже проезжаемо или занято домом

	default:
		t.MakeRoadNormal(bits, townRoadRT.Bit(), town, tile.OwnerTown, tile.OwnerNone)
	}

	m.MarkDirty(m.Index(x, y))
}

// applyClimate расставляет климатические флаги: снег на дорогах выше
// снеговой линии (арктика) или пустыню в засушливых зонах (тропики)
func (g *Generator) applyClimate(m *gamemap.Map) {
	if g.cfg.Climate == "temperate" || g.cfg.Climate == "" {
		return
	}

	for y := uint32(0); y < m.SizeY(); y++ {
		for x := uint32(0); x < m.SizeX(); x++ {
			t := m.At(x, y)
			if t == nil || !t.IsRoadTile() {
				continue
			}

			switch g.cfg.Climate {
			case "arctic":
				if t.GetHeight() >= SnowLine {
					t.SetSnow(true)
					m.MarkDirty(m.Index(x, y))
				}
			case "tropic":
				wet := g.moisture.At2D(float64(x)*g.MoistureScale, float64(y)*g.MoistureScale)
				if wet < DesertMax {
					t.SetDesert(true)
					m.MarkDirty(m.Index(x, y))
				}
			}
		}
	}
}

// stepCoords возвращает координаты соседа в направлении d
func stepCoords(x, y uint32, d tile.DiagDirection) (uint32, uint32) {
	switch d {
	case tile.DiagDirNE:
		return x - 1, y
	case tile.DiagDirSE:
		return x, y + 1
	case tile.DiagDirSW:
		return x + 1, y
	default: // DiagDirNW
		return x, y - 1
	}
}

// along возвращает координату вдоль оси движения
func along(x, y uint32, d tile.DiagDirection) uint32 {
	if d.Axis() == tile.AxisX {
		return x
	}
	return y
}

package gamemap

import (
	"fmt"

	"github.com/annel0/transport-game/internal/tile"
	"github.com/annel0/transport-game/internal/vec"
)

// TileIndex — индекс тайла в плоском массиве карты
type TileIndex uint32

// InvalidTileIndex — индекс вне карты
const InvalidTileIndex TileIndex = 0xFFFFFFFF

// RegionSize — сторона региона в тайлах. Регион — гранулярность
// отслеживания изменений и хранения: на диск уходят только изменённые
// регионы.
const RegionSize = 64

// RegionTileCount — количество тайлов в одном регионе
const RegionTileCount = RegionSize * RegionSize

// RegionByteSize — размер сериализованного региона в байтах
const RegionByteSize = RegionTileCount * tile.RecordSize

// Map — плоский массив записей тайлов фиксированного размера.
// Единственная точка владения памятью карты: кодек работает с записями
// по указателю, подсистемы выше ходят сюда по индексу.
//
// Слой не знает о блокировках: сериализацию доступа обеспечивает
// владелец карты (world.Manager).
type Map struct {
	sizeX, sizeY uint32
	regionsX     uint32
	regionsY     uint32
	tiles        []tile.Tile
	dirty        []uint64 // битсет изменённых регионов
}

// New создаёт карту указанных размеров. Размеры должны быть кратны
// RegionSize и положительны. Все тайлы инициализируются открытой
// землёй; крайние восточный и южный ряды — краевые (Void), как
// за-пределами-карты страж для соседских запросов.
func New(sizeX, sizeY uint32) (*Map, error) {
	if sizeX == 0 || sizeY == 0 || sizeX%RegionSize != 0 || sizeY%RegionSize != 0 {
		return nil, fmt.Errorf("размеры карты %dx%d должны быть кратны %d", sizeX, sizeY, RegionSize)
	}

	m := &Map{
		sizeX:    sizeX,
		sizeY:    sizeY,
		regionsX: sizeX / RegionSize,
		regionsY: sizeY / RegionSize,
		tiles:    make([]tile.Tile, sizeX*sizeY),
	}
	m.dirty = make([]uint64, (m.regionsX*m.regionsY+63)/64)

	for i := range m.tiles {
		m.tiles[i].MakeClear()
	}
	for x := uint32(0); x < sizeX; x++ {
		m.tiles[(sizeY-1)*sizeX+x].MakeVoid()
	}
	for y := uint32(0); y < sizeY; y++ {
		m.tiles[y*sizeX+sizeX-1].MakeVoid()
	}
	return m, nil
}

// SizeX возвращает ширину карты в тайлах
func (m *Map) SizeX() uint32 { return m.sizeX }

// SizeY возвращает высоту карты в тайлах
func (m *Map) SizeY() uint32 { return m.sizeY }

// RegionsX возвращает количество регионов по X
func (m *Map) RegionsX() uint32 { return m.regionsX }

// RegionsY возвращает количество регионов по Y
func (m *Map) RegionsY() uint32 { return m.regionsY }

// Index возвращает индекс тайла по координатам
func (m *Map) Index(x, y uint32) TileIndex {
	if x >= m.sizeX || y >= m.sizeY {
		return InvalidTileIndex
	}
	return TileIndex(y*m.sizeX + x)
}

// XY возвращает координаты тайла по индексу
func (m *Map) XY(idx TileIndex) (x, y uint32) {
	return uint32(idx) % m.sizeX, uint32(idx) / m.sizeX
}

// IsValid сообщает, лежит ли индекс внутри карты
func (m *Map) IsValid(idx TileIndex) bool {
	return uint32(idx) < uint32(len(m.tiles))
}

// Tile возвращает изменяемую запись тайла по индексу. O(1).
// Вызывающая сторона, изменившая запись, обязана пометить тайл
// через MarkDirty.
func (m *Map) Tile(idx TileIndex) *tile.Tile {
	return &m.tiles[idx]
}

// At возвращает запись тайла по координатам; nil вне карты
func (m *Map) At(x, y uint32) *tile.Tile {
	idx := m.Index(x, y)
	if idx == InvalidTileIndex {
		return nil
	}
	return &m.tiles[idx]
}

// regionIndex возвращает порядковый номер региона по его координатам
func (m *Map) regionIndex(rc vec.Vec2) uint32 {
	return uint32(rc.Y)*m.regionsX + uint32(rc.X)
}

// RegionOf возвращает координаты региона, которому принадлежит тайл
func (m *Map) RegionOf(idx TileIndex) vec.Vec2 {
	x, y := m.XY(idx)
	return vec.Vec2{X: int(x), Y: int(y)}.ToRegionCoords()
}

// MarkDirty помечает регион тайла изменённым
func (m *Map) MarkDirty(idx TileIndex) {
	r := m.regionIndex(m.RegionOf(idx))
	m.dirty[r/64] |= 1 << (r % 64)
}

// ClearDirty снимает пометку изменённости с региона
func (m *Map) ClearDirty(rc vec.Vec2) {
	r := m.regionIndex(rc)
	m.dirty[r/64] &^= 1 << (r % 64)
}

// DirtyRegions возвращает координаты всех помеченных регионов
func (m *Map) DirtyRegions() []vec.Vec2 {
	var out []vec.Vec2
	for ry := uint32(0); ry < m.regionsY; ry++ {
		for rx := uint32(0); rx < m.regionsX; rx++ {
			r := ry*m.regionsX + rx
			if m.dirty[r/64]&(1<<(r%64)) != 0 {
				out = append(out, vec.Vec2{X: int(rx), Y: int(ry)})
			}
		}
	}
	return out
}

// EncodeRegion сериализует регион в сырой блок записей.
// Записи идут построчно, little-endian, по tile.RecordSize байт.
func (m *Map) EncodeRegion(rc vec.Vec2) ([]byte, error) {
	if uint32(rc.X) >= m.regionsX || uint32(rc.Y) >= m.regionsY {
		return nil, fmt.Errorf("регион (%d,%d) вне карты %dx%d регионов", rc.X, rc.Y, m.regionsX, m.regionsY)
	}
	buf := make([]byte, RegionByteSize)
	baseX := uint32(rc.X) * RegionSize
	baseY := uint32(rc.Y) * RegionSize
	off := 0
	for ly := uint32(0); ly < RegionSize; ly++ {
		row := (baseY+ly)*m.sizeX + baseX
		for lx := uint32(0); lx < RegionSize; lx++ {
			m.tiles[row+uint32(lx)].Encode(buf[off : off+tile.RecordSize])
			off += tile.RecordSize
		}
	}
	return buf, nil
}

// DecodeRegion восстанавливает регион из сырого блока записей
func (m *Map) DecodeRegion(rc vec.Vec2, data []byte) error {
	if uint32(rc.X) >= m.regionsX || uint32(rc.Y) >= m.regionsY {
		return fmt.Errorf("регион (%d,%d) вне карты %dx%d регионов", rc.X, rc.Y, m.regionsX, m.regionsY)
	}
	if len(data) != RegionByteSize {
		return fmt.Errorf("неверный размер блока региона: %d, ожидалось %d", len(data), RegionByteSize)
	}
	baseX := uint32(rc.X) * RegionSize
	baseY := uint32(rc.Y) * RegionSize
	off := 0
	for ly := uint32(0); ly < RegionSize; ly++ {
		row := (baseY+ly)*m.sizeX + baseX
		for lx := uint32(0); lx < RegionSize; lx++ {
			m.tiles[row+uint32(lx)].Decode(data[off : off+tile.RecordSize])
			off += tile.RecordSize
		}
	}
	return nil
}

// Snapshot сериализует всю карту в один сырой блок записей
func (m *Map) Snapshot() []byte {
	buf := make([]byte, len(m.tiles)*tile.RecordSize)
	for i := range m.tiles {
		m.tiles[i].Encode(buf[i*tile.RecordSize : (i+1)*tile.RecordSize])
	}
	return buf
}

// Restore восстанавливает всю карту из сырого блока записей.
// Размер блока должен точно соответствовать размерам карты.
func (m *Map) Restore(data []byte) error {
	if len(data) != len(m.tiles)*tile.RecordSize {
		return fmt.Errorf("неверный размер снимка: %d байт, ожидалось %d", len(data), len(m.tiles)*tile.RecordSize)
	}
	for i := range m.tiles {
		m.tiles[i].Decode(data[i*tile.RecordSize : (i+1)*tile.RecordSize])
	}
	return nil
}

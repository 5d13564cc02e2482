package gamemap

import (
	"testing"

	"github.com/annel0/transport-game/internal/tile"
	"github.com/annel0/transport-game/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Borders(t *testing.T) {
	m, err := New(128, 64)
	require.NoError(t, err)

	assert.Equal(t, uint32(128), m.SizeX())
	assert.Equal(t, uint32(64), m.SizeY())
	assert.Equal(t, uint32(2), m.RegionsX())
	assert.Equal(t, uint32(1), m.RegionsY())

	// Внутренние тайлы — земля, крайние восточный и южный ряды — край карты.
	assert.True(t, m.At(0, 0).IsGround(), "Внутренний тайл должен быть землёй")
	assert.True(t, m.At(127, 10).IsVoid(), "Восточный ряд — краевой")
	assert.True(t, m.At(10, 63).IsVoid(), "Южный ряд — краевой")
	assert.True(t, m.At(127, 63).IsVoid())
}

func TestNew_RejectsBadSizes(t *testing.T) {
	_, err := New(100, 64)
	assert.Error(t, err, "Ширина не кратна размеру региона")
	_, err = New(0, 64)
	assert.Error(t, err)
}

func TestIndexRoundTrip(t *testing.T) {
	m, err := New(256, 128)
	require.NoError(t, err)

	idx := m.Index(200, 100)
	require.NotEqual(t, InvalidTileIndex, idx)
	x, y := m.XY(idx)
	assert.Equal(t, uint32(200), x)
	assert.Equal(t, uint32(100), y)

	assert.Equal(t, InvalidTileIndex, m.Index(256, 0), "Координата за краем")
	assert.Nil(t, m.At(0, 128))
}

func TestDirtyTracking(t *testing.T) {
	m, err := New(128, 128)
	require.NoError(t, err)
	assert.Empty(t, m.DirtyRegions(), "Свежая карта чиста")

	idx := m.Index(70, 5) // регион (1,0)
	m.Tile(idx).MakeRoadNormal(tile.RoadBitsX, tile.RoadTypesRoad, 0, tile.OwnerTown, tile.OwnerNone)
	m.MarkDirty(idx)

	dirty := m.DirtyRegions()
	require.Len(t, dirty, 1)
	assert.Equal(t, vec.Vec2{X: 1, Y: 0}, dirty[0])

	m.ClearDirty(dirty[0])
	assert.Empty(t, m.DirtyRegions())
}

func TestRegionEncodeDecode(t *testing.T) {
	src, err := New(128, 128)
	require.NoError(t, err)

	idx := src.Index(65, 66)
	src.Tile(idx).MakeRoadCrossing(tile.OwnerTown, tile.OwnerNone, tile.CompanyOwner(0),
		tile.AxisX, tile.RailTypeRail, tile.RoadTypesRoad, 3)

	rc := vec.Vec2{X: 1, Y: 1}
	data, err := src.EncodeRegion(rc)
	require.NoError(t, err)
	require.Len(t, data, RegionByteSize)

	dst, err := New(128, 128)
	require.NoError(t, err)
	require.NoError(t, dst.DecodeRegion(rc, data))

	got := dst.At(65, 66)
	require.True(t, got.IsLevelCrossingTile(), "Переезд должен пережить сериализацию региона")
	assert.Equal(t, tile.AxisX, got.GetCrossingRoadAxis())

	// Чужой регион не затронут.
	assert.True(t, dst.At(0, 0).IsGround())
}

func TestSnapshotRestore(t *testing.T) {
	src, err := New(64, 64)
	require.NoError(t, err)
	src.At(10, 10).MakeHouse(2, 0x55)
	src.At(11, 10).MakeWater(tile.OwnerWater, 0x0A)

	snap := src.Snapshot()

	dst, err := New(64, 64)
	require.NoError(t, err)
	require.NoError(t, dst.Restore(snap))

	assert.True(t, dst.At(10, 10).IsHouse())
	assert.Equal(t, uint8(0x55), dst.At(10, 10).GetRandomBits())
	assert.True(t, dst.At(11, 10).IsWater())

	err = dst.Restore(snap[:100])
	assert.Error(t, err, "Снимок неверного размера должен отклоняться")
}

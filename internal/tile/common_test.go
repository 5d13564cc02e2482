package tile

import "testing"

func TestOwner_RoundTrip(t *testing.T) {
	var ti Tile
	ti.MakeWater(OwnerWater, 0)

	if got := ti.GetOwner(); got != OwnerWater {
		t.Errorf("Ожидался владелец %d, получен %d", OwnerWater, got)
	}
	ti.SetOwner(CompanyOwner(8))
	if !ti.IsTileOwner(CompanyOwner(8)) {
		t.Error("После SetOwner тайл должен принадлежать компании 8")
	}
}

func TestSnow_DoubleToggleIsIdentity(t *testing.T) {
	var ti Tile
	ti.MakeRoadNormal(RoadBitsX, RoadTypesRoad, 0, OwnerTown, OwnerNone)

	before := ti
	ti.ToggleSnow()
	if !ti.GetSnow() {
		t.Error("После первого переключения снег должен лежать")
	}
	ti.ToggleSnow()
	if ti != before {
		t.Error("Двойное переключение снега должно вернуть исходное состояние")
	}
}

func TestSnow_DesertAliases(t *testing.T) {
	var ti Tile
	ti.MakeRoadTunnel(OwnerTown, OwnerNone, DiagDirNE, RoadTypesRoad, 0)

	ti.SetDesert(true)
	if !ti.GetSnow() {
		t.Error("Пустыня и снег — один и тот же бит")
	}
	ti.ToggleDesert()
	if ti.GetDesert() {
		t.Error("После переключения пустыни бит должен быть снят")
	}
}

func TestTunnelBridgeDirection(t *testing.T) {
	cases := []struct {
		name string
		make func(ti *Tile)
		want DiagDirection
	}{
		{"рампа автомоста", func(ti *Tile) {
			ti.MakeRoadBridgeRamp(OwnerTown, OwnerNone, 1, DiagDirSE, RoadTypesRoad, 0)
		}, DiagDirSE},
		{"рампа ж/д моста", func(ti *Tile) {
			ti.MakeRailBridgeRamp(CompanyOwner(0), 3, DiagDirSW, RailTypeRail)
		}, DiagDirSW},
		{"портал тоннеля", func(ti *Tile) {
			ti.MakeRoadTunnel(OwnerTown, OwnerNone, DiagDirNW, RoadTypesRoad, 0)
		}, DiagDirNW},
		{"акведук", func(ti *Tile) {
			ti.MakeAqueduct(OwnerWater, DiagDirNE)
		}, DiagDirNE},
	}
	for _, c := range cases {
		var ti Tile
		c.make(&ti)
		if got := ti.GetTunnelBridgeDirection(); got != c.want {
			t.Errorf("%s: ожидалось направление %s, получено %s", c.name, c.want, got)
		}
	}
}

func TestRandomBits(t *testing.T) {
	var house Tile
	house.MakeHouse(4, 0xA7)
	if got := house.GetRandomBits(); got != 0xA7 {
		t.Errorf("Ожидались случайные биты 0xA7, получены 0x%02X", got)
	}

	house.SetRandomBits(0x3C)
	if got := house.GetRandomBits(); got != 0x3C {
		t.Errorf("После перезаписи ожидались 0x3C, получены 0x%02X", got)
	}
}

func TestFrame(t *testing.T) {
	var st Tile
	st.MakeStation(CompanyOwner(2), 5)
	if got := st.GetFrame(); got != 0 {
		t.Errorf("Свежая станция должна быть на кадре 0, получен %d", got)
	}
	st.SetFrame(13)
	if got := st.GetFrame(); got != 13 {
		t.Errorf("Ожидался кадр 13, получен %d", got)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	var src Tile
	src.MakeRoadCrossing(OwnerTown, CompanyOwner(3), CompanyOwner(1), AxisY, RailTypeMonorail, RoadTypesAll, 1000)
	src.SetHeight(4)
	src.BarCrossing()

	buf := make([]byte, RecordSize)
	src.Encode(buf)

	var dst Tile
	dst.Decode(buf)
	if dst != src {
		t.Errorf("Запись не пережила сериализацию: %+v != %+v", dst, src)
	}
}

func TestAssert_ContractViolationPanics(t *testing.T) {
	if !checksEnabled {
		t.Skip("проверки предусловий выключены тегом сборки")
	}
	var ti Tile
	ti.MakeHouse(1, 0)

	defer func() {
		if recover() == nil {
			t.Error("GetOwner на доме должен падать с паникой")
		}
	}()
	ti.GetOwner()
}

func TestRailTrack(t *testing.T) {
	var ti Tile
	ti.MakeRailTrack(CompanyOwner(1), TrackBitsX, RailTypeMaglev)

	if got := ti.GetRailTrackBits(); got != TrackBitsX {
		t.Errorf("Ожидались пути %04b, получены %04b", TrackBitsX, got)
	}
	if got := ti.GetRailType(); got != RailTypeMaglev {
		t.Errorf("Ожидался тип рельсов %d, получен %d", RailTypeMaglev, got)
	}

	ti.SetRailTrackBits(TrackBitsX | TrackBitsY)
	if got := ti.GetRailTrackBits(); got != TrackBitsX|TrackBitsY {
		t.Errorf("Ожидались пути %04b, получены %04b", TrackBitsX|TrackBitsY, got)
	}
}

package tile

import "testing"

func TestMakeRoadNormal_RoundTrip(t *testing.T) {
	var ti Tile
	ti.MakeRoadNormal(RoadBitNW|RoadBitNE, RoadTypesRoad|RoadTypesTram, 7, CompanyOwner(3), CompanyOwner(5))

	if !ti.IsNormalRoadTile() {
		t.Fatalf("Ожидался тайл дорожного полотна, получен %s/%d", ti.Type(), ti.Subtype())
	}
	if got := ti.GetRoadTypes(); got != RoadTypesRoad|RoadTypesTram {
		t.Errorf("Ожидались типы дорог %04b, получены %04b", RoadTypesRoad|RoadTypesTram, got)
	}
	if got := ti.GetRoadBits(RoadTypeRoad); got != RoadBitNW|RoadBitNE {
		t.Errorf("Ожидались биты %s, получены %s", RoadBitNW|RoadBitNE, got)
	}
	if got := ti.GetRoadBits(RoadTypeTram); got != RoadBitNW|RoadBitNE {
		t.Errorf("Ожидались трамвайные биты %s, получены %s", RoadBitNW|RoadBitNE, got)
	}
	if got := ti.GetRoadOwner(RoadTypeRoad); got != CompanyOwner(3) {
		t.Errorf("Ожидался владелец дороги %d, получен %d", CompanyOwner(3), got)
	}
	if got := ti.GetRoadOwner(RoadTypeTram); got != CompanyOwner(5) {
		t.Errorf("Ожидался владелец трамвая %d, получен %d", CompanyOwner(5), got)
	}
	if got := ti.GetRoadTownID(); got != 7 {
		t.Errorf("Ожидался город 7, получен %d", got)
	}
}

func TestMakeRoadNormal_AbsentTypeHasNoBits(t *testing.T) {
	var ti Tile
	ti.MakeRoadNormal(RoadBitsX, RoadTypesRoad, 0, CompanyOwner(1), OwnerNone)

	if got := ti.GetRoadBits(RoadTypeRoad); got != RoadBitsX {
		t.Errorf("Ожидались биты %s, получены %s", RoadBitsX, got)
	}
	if got := ti.GetRoadBits(RoadTypeTram); got != RoadBitsNone {
		t.Errorf("Отсутствующий трамвай должен давать пустые биты, получены %s", got)
	}
	if got := ti.GetOtherRoadBits(RoadTypeRoad); got != RoadBitsNone {
		t.Errorf("GetOtherRoadBits(ROAD) должен быть пуст, получены %s", got)
	}
}

// Сценарий из требований: дорога {North, East} ≈ {NW, NE}, только ROAD,
// владелец — компания 3.
func TestPlainRoadScenario(t *testing.T) {
	var ti Tile
	ti.MakeRoadNormal(RoadBitNW|RoadBitNE, RoadTypesRoad, 0, CompanyOwner(3), OwnerNone)

	if got := ti.GetAllRoadBits(); got != RoadBitNW|RoadBitNE {
		t.Errorf("GetAllRoadBits: ожидались %s, получены %s", RoadBitNW|RoadBitNE, got)
	}
	if got := ti.GetOtherRoadBits(RoadTypeRoad); got != RoadBitsNone {
		t.Errorf("GetOtherRoadBits: ожидалось пустое множество, получены %s", got)
	}
	if ti.HasTownOwnedRoad() {
		t.Error("Дорога компании 3 не должна считаться городской")
	}
}

func TestSetRoadBits_Idempotent(t *testing.T) {
	var a, b Tile
	a.MakeRoadNormal(RoadBitsNone, RoadTypesAll, 0, OwnerTown, CompanyOwner(2))
	b.MakeRoadNormal(RoadBitsNone, RoadTypesAll, 0, OwnerTown, CompanyOwner(2))

	a.SetRoadBits(RoadBitSE|RoadBitSW, RoadTypeRoad)
	b.SetRoadBits(RoadBitSE|RoadBitSW, RoadTypeRoad)
	b.SetRoadBits(RoadBitSE|RoadBitSW, RoadTypeRoad)

	if a != b {
		t.Errorf("Повторный SetRoadBits изменил состояние: %+v != %+v", a, b)
	}
}

func TestSetRoadBits_TouchesOnlyOwnRange(t *testing.T) {
	var ti Tile
	ti.MakeRoadNormal(RoadBitsAll, RoadTypesAll, 0, CompanyOwner(0), CompanyOwner(1))

	ti.SetRoadBits(RoadBitsY, RoadTypeTram)

	if got := ti.GetRoadBits(RoadTypeRoad); got != RoadBitsAll {
		t.Errorf("Биты ROAD не должны меняться: ожидались %s, получены %s", RoadBitsAll, got)
	}
	if got := ti.GetRoadBits(RoadTypeTram); got != RoadBitsY {
		t.Errorf("Биты TRAM: ожидались %s, получены %s", RoadBitsY, got)
	}
}

func TestDisallowedRoadDirections_RoundTrip(t *testing.T) {
	var ti Tile
	ti.MakeRoadNormal(RoadBitsX, RoadTypesRoad, 0, OwnerTown, OwnerNone)

	for d := DisallowedNone; d <= DisallowedBoth; d++ {
		ti.SetDisallowedRoadDirections(d)
		if got := ti.GetDisallowedRoadDirections(); got != d {
			t.Errorf("Ожидался запрет %d, получен %d", d, got)
		}
	}
}

func TestRoadWorks_Countdown(t *testing.T) {
	var ti Tile
	ti.MakeRoadNormal(RoadBitsX, RoadTypesRoad, 0, OwnerTown, OwnerNone)
	ti.SetRoadside(RoadsideGrass)

	ti.StartRoadWorks()
	if !ti.HasRoadWorks() {
		t.Fatal("После StartRoadWorks работы должны быть активны")
	}
	if got := ti.GetRoadside(); got != RoadsideGrassWorks {
		t.Errorf("Обочина должна быть перекопана, получена %d", got)
	}

	finished := 0
	for i := 0; i < roadWorksDuration; i++ {
		if ti.DecreaseRoadWorksCounter() {
			finished++
			if i != roadWorksDuration-1 {
				t.Errorf("Счётчик опустел на шаге %d, ожидался шаг %d", i, roadWorksDuration-1)
			}
		}
	}
	if finished != 1 {
		t.Errorf("true должен вернуться ровно один раз, вернулся %d раз", finished)
	}
	if ti.HasRoadWorks() {
		t.Error("После опустошения счётчика работы должны быть сняты")
	}
	if got := ti.GetRoadside(); got != RoadsideGrass {
		t.Errorf("Обочина должна вернуться к газону, получена %d", got)
	}
}

// Сценарий из требований: рампа моста типа 5 в направлении NE,
// владельцы P1/P2, оба типа дорог, город 7.
func TestRoadBridgeRampScenario(t *testing.T) {
	var ti Tile
	ti.MakeRoadBridgeRamp(CompanyOwner(1), CompanyOwner(2), 5, DiagDirNE, RoadTypesAll, 7)

	if !ti.IsRoadBridgeTile() {
		t.Fatalf("Ожидалась рампа моста, получен %s/%d", ti.Type(), ti.Subtype())
	}
	if got := ti.GetRoadBridgeType(); got != 5 {
		t.Errorf("Ожидался тип моста 5, получен %d", got)
	}
	if got := ti.GetTunnelBridgeDirection(); got != DiagDirNE {
		t.Errorf("Ожидалось направление NE, получено %s", got)
	}
	if ti.IsExtendedRoadBridge() {
		t.Error("Свежая рампа не должна быть кастомным предмостьем")
	}

	// Отклоняем биты от оси NE—SW — рампа становится кастомной.
	ti.SetRoadBits(RoadBitsX|RoadBitSE, RoadTypeRoad)
	if !ti.IsExtendedRoadBridge() {
		t.Error("Биты вне оси моста должны давать кастомное предмостье")
	}
}

func TestBridgeRoadConversions(t *testing.T) {
	var ti Tile
	ti.MakeRoadBridgeRamp(CompanyOwner(4), OwnerNone, 2, DiagDirSW, RoadTypesRoad, 9)

	ti.MakeNormalRoadFromBridge()
	if !ti.IsNormalRoadTile() {
		t.Fatal("После MakeNormalRoadFromBridge ожидалось дорожное полотно")
	}
	if got := ti.GetRoadOwner(RoadTypeRoad); got != CompanyOwner(4) {
		t.Errorf("Владелец должен сохраниться: ожидался %d, получен %d", CompanyOwner(4), got)
	}
	if got := ti.GetRoadTownID(); got != 9 {
		t.Errorf("Город должен сохраниться: ожидался 9, получен %d", got)
	}
	// Биты остаются мостовыми до правки вызывающей стороной.
	if got := ti.GetRoadBits(RoadTypeRoad); got != RoadBitsX {
		t.Errorf("Дорожные биты должны остаться осевыми %s, получены %s", RoadBitsX, got)
	}

	ti.MakeRoadBridgeFromRoad(6, DiagDirNW)
	if !ti.IsRoadBridgeTile() {
		t.Fatal("После MakeRoadBridgeFromRoad ожидалась рампа моста")
	}
	if got := ti.GetRoadBridgeType(); got != 6 {
		t.Errorf("Ожидался тип моста 6, получен %d", got)
	}
	if got := ti.GetTunnelBridgeDirection(); got != DiagDirNW {
		t.Errorf("Ожидалось направление NW, получено %s", got)
	}
}

func TestGetAnyRoadBits_Dispatch(t *testing.T) {
	var road, crossing, tunnel, clear Tile
	road.MakeRoadNormal(RoadBitNW|RoadBitSW, RoadTypesRoad, 0, OwnerTown, OwnerNone)
	crossing.MakeRoadCrossing(OwnerTown, OwnerNone, CompanyOwner(0), AxisY, RailTypeRail, RoadTypesRoad, 3)
	tunnel.MakeRoadTunnel(CompanyOwner(2), OwnerNone, DiagDirSE, RoadTypesRoad, 0)
	clear.MakeClear()

	if got := road.GetAnyRoadBits(RoadTypeRoad, false); got != RoadBitNW|RoadBitSW {
		t.Errorf("Полотно: ожидались %s, получены %s", RoadBitNW|RoadBitSW, got)
	}
	if got := crossing.GetAnyRoadBits(RoadTypeRoad, false); got != RoadBitsY {
		t.Errorf("Переезд: ожидались осевые %s, получены %s", RoadBitsY, got)
	}
	if got := crossing.GetAnyRoadBits(RoadTypeTram, false); got != RoadBitsNone {
		t.Errorf("Переезд без трамвая должен давать пустые биты, получены %s", got)
	}
	if got := tunnel.GetAnyRoadBits(RoadTypeRoad, true); got != RoadBitsY {
		t.Errorf("Портал (полный подъезд): ожидались %s, получены %s", RoadBitsY, got)
	}
	if got := tunnel.GetAnyRoadBits(RoadTypeRoad, false); got != DiagDirNW.RoadBits() {
		t.Errorf("Портал (бит к суше): ожидался %s, получен %s", DiagDirNW.RoadBits(), got)
	}
	if got := clear.GetAnyRoadBits(RoadTypeRoad, false); got != RoadBitsNone {
		t.Errorf("Земля не несёт дорог, получены %s", got)
	}
}

func TestRoadOwner_SetAndCheck(t *testing.T) {
	var ti Tile
	ti.MakeRoadNormal(RoadBitsX, RoadTypesAll, 1, OwnerTown, CompanyOwner(6))

	if !ti.HasTownOwnedRoad() {
		t.Error("Дорога города должна распознаваться как городская")
	}
	if !ti.IsRoadOwner(RoadTypeTram, CompanyOwner(6)) {
		t.Error("Трамвай должен принадлежать компании 6")
	}

	ti.SetRoadOwner(RoadTypeRoad, CompanyOwner(0))
	if ti.HasTownOwnedRoad() {
		t.Error("После передачи компании дорога не должна быть городской")
	}
}

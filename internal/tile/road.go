package tile

// Дорожный кодек: аксессоры и конструкторы дорожных граней записи.
//
// Раскладка обычного дорожного полотна (TypeRoad/SubtypeTrack):
//
//	m1 биты 0..4 — владелец дороги
//	m2           — город
//	m3 биты 0..1 — запрещённые направления, бит 4 — снег/пустыня
//	m4 биты 0..3 — дорожные биты ROAD, биты 4..7 — дорожные биты TRAM
//	m5 биты 0..4 — владелец трамвая
//	m6 биты 0..1 — присутствующие типы дорог, биты 2..4 — обочина
//	m7 биты 0..3 — счётчик дорожных работ, бит 4 — флаг работ
//
// Рампа автодорожного моста (TypeRoad/SubtypeBridge) переиспользует
// m1/m2/m4/m5/m6 как выше; m3 биты 6..7 — направление рампы,
// m7 целиком — тип моста. Счётчик работ и тип моста делят m7:
// какой смысл у байта, решает подтип.

// roadWorksDuration — начальное значение счётчика дорожных работ.
const roadWorksDuration = 15

// GetRoadBits возвращает дорожные биты указанного типа дороги.
// Предусловие: IsRoadTile. Если тип дороги на тайле отсутствует,
// возвращается пустое множество.
func (t *Tile) GetRoadBits(rt RoadType) RoadBits {
	assert(t.IsRoadTile(), "GetRoadBits на тайле %s", t.Type())
	if !t.HasTileRoadType(rt) {
		return RoadBitsNone
	}
	if rt == RoadTypeTram {
		return RoadBits(gb(t.m4, 4, 4))
	}
	return RoadBits(gb(t.m4, 0, 4))
}

// GetOtherRoadBits возвращает дорожные биты комплементарного типа
// (ROAD↔TRAM).
func (t *Tile) GetOtherRoadBits(rt RoadType) RoadBits {
	return t.GetRoadBits(rt.Other())
}

// GetAllRoadBits возвращает объединение дорожных бит всех
// присутствующих типов дорог.
func (t *Tile) GetAllRoadBits() RoadBits {
	return t.GetRoadBits(RoadTypeRoad) | t.GetRoadBits(RoadTypeTram)
}

// SetRoadBits записывает дорожные биты указанного типа дороги.
// Предусловие: IsRoadTile. Затрагивается только диапазон бит этого
// типа; геометрическую корректность бит кодек не проверяет.
func (t *Tile) SetRoadBits(bits RoadBits, rt RoadType) {
	assert(t.IsRoadTile(), "SetRoadBits на тайле %s", t.Type())
	if rt == RoadTypeTram {
		sb(&t.m4, 4, 4, uint8(bits))
	} else {
		sb(&t.m4, 0, 4, uint8(bits))
	}
}

// GetAnyRoadBits возвращает эквивалентные дорожные биты для любого
// тайла, способного нести дорогу: обычного полотна, рампы моста,
// переезда или тоннеля. Для прочих тайлов возвращает пустое множество.
// Это единственный дорожный запрос с диспетчеризацией по подтипу внутри
// самого аксессора: сырые кодировки подтипов различаются.
//
// tunnelBridgeEntrance выбирает, что сообщает портал тоннеля: полные
// биты подъезда по оси (true) или единственный бит в сторону суши
// (false).
func (t *Tile) GetAnyRoadBits(rt RoadType, tunnelBridgeEntrance bool) RoadBits {
	switch {
	case t.IsNormalRoadTile():
		return t.GetRoadBits(rt)
	case t.IsRoadBridgeTile():
		// Кастомные предмостья хранят фактические биты — они и есть истина.
		return t.GetRoadBits(rt)
	case t.IsLevelCrossingTile():
		if !t.HasTileRoadType(rt) {
			return RoadBitsNone
		}
		return t.GetCrossingRoadAxis().RoadBits()
	case t.IsTunnelTile():
		if !t.HasTileRoadType(rt) {
			return RoadBitsNone
		}
		dir := t.GetTunnelBridgeDirection()
		if tunnelBridgeEntrance {
			return dir.Axis().RoadBits()
		}
		return dir.Reverse().RoadBits()
	default:
		return RoadBitsNone
	}
}

// GetRoadTypes возвращает множество присутствующих типов дорог.
// Предусловие: MayHaveRoad. Диапазон m6 0..1 одинаков у всех
// дорогоспособных подтипов.
func (t *Tile) GetRoadTypes() RoadTypes {
	assert(t.MayHaveRoad(), "GetRoadTypes на тайле %s", t.Type())
	return RoadTypes(gb(t.m6, 0, 2))
}

// SetRoadTypes записывает множество присутствующих типов дорог,
// не трогая побитовые диапазоны отдельных типов.
func (t *Tile) SetRoadTypes(rot RoadTypes) {
	assert(t.MayHaveRoad(), "SetRoadTypes на тайле %s", t.Type())
	sb(&t.m6, 0, 2, uint8(rot))
}

// HasTileRoadType проверяет присутствие типа дороги на тайле
func (t *Tile) HasTileRoadType(rt RoadType) bool {
	return t.GetRoadTypes().Has(rt)
}

// GetRoadOwner возвращает владельца указанного типа дороги.
// Предусловие: HasTileRoadType(rt) — тип должен присутствовать,
// иначе диапазон владельца не имеет смысла.
func (t *Tile) GetRoadOwner(rt RoadType) Owner {
	assert(t.MayHaveRoad(), "GetRoadOwner на тайле %s", t.Type())
	assert(t.HasTileRoadType(rt), "GetRoadOwner: тип %s отсутствует на тайле", rt)
	if rt == RoadTypeTram {
		return Owner(gb(t.m5, 0, 5))
	}
	// Владелец ROAD на переезде лежит в m7: m1 там занят владельцем рельсов.
	if t.IsLevelCrossingTile() {
		return Owner(gb(t.m7, 0, 5))
	}
	return Owner(gb(t.m1, 0, 5))
}

// SetRoadOwner записывает владельца указанного типа дороги.
// Предусловие: HasTileRoadType(rt).
func (t *Tile) SetRoadOwner(rt RoadType, o Owner) {
	assert(t.MayHaveRoad(), "SetRoadOwner на тайле %s", t.Type())
	assert(t.HasTileRoadType(rt), "SetRoadOwner: тип %s отсутствует на тайле", rt)
	switch {
	case rt == RoadTypeTram:
		sb(&t.m5, 0, 5, uint8(o))
	case t.IsLevelCrossingTile():
		sb(&t.m7, 0, 5, uint8(o))
	default:
		sb(&t.m1, 0, 5, uint8(o))
	}
}

// IsRoadOwner проверяет, принадлежит ли тип дороги владельцу.
// Предусловие: HasTileRoadType(rt).
func (t *Tile) IsRoadOwner(rt RoadType, o Owner) bool {
	assert(t.HasTileRoadType(rt), "IsRoadOwner: тип %s отсутствует на тайле", rt)
	return t.GetRoadOwner(rt) == o
}

// HasTownOwnedRoad сообщает, есть ли на тайле дорога, принадлежащая
// городу. «Городская дорога» — выделенное значение владельца, а не
// отдельный флаг.
func (t *Tile) HasTownOwnedRoad() bool {
	return t.HasTileRoadType(RoadTypeRoad) && t.IsRoadOwner(RoadTypeRoad, OwnerTown)
}

// GetRoadTownID возвращает город, к которому приписана дорога тайла
func (t *Tile) GetRoadTownID() TownID {
	assert(t.MayHaveRoad(), "GetRoadTownID на тайле %s", t.Type())
	return TownID(t.m2)
}

// GetRoadside возвращает оформление обочины.
// Предусловие: IsNormalRoadTile.
func (t *Tile) GetRoadside() Roadside {
	assert(t.IsNormalRoadTile(), "GetRoadside вне дорожного полотна")
	return Roadside(gb(t.m6, 2, 3))
}

// SetRoadside записывает оформление обочины.
// Предусловие: IsNormalRoadTile.
func (t *Tile) SetRoadside(s Roadside) {
	assert(t.IsNormalRoadTile(), "SetRoadside вне дорожного полотна")
	sb(&t.m6, 2, 3, uint8(s))
}

// HasRoadWorks сообщает, идут ли на тайле дорожные работы.
// Предусловие: IsNormalRoadTile.
func (t *Tile) HasRoadWorks() bool {
	assert(t.IsNormalRoadTile(), "HasRoadWorks вне дорожного полотна")
	return hasBit(t.m7, 4)
}

// StartRoadWorks начинает дорожные работы: взводит флаг, заряжает
// счётчик и перекапывает обочину. Предусловие: IsNormalRoadTile и работы
// ещё не идут.
func (t *Tile) StartRoadWorks() {
	assert(t.IsNormalRoadTile(), "StartRoadWorks вне дорожного полотна")
	assert(!t.HasRoadWorks(), "StartRoadWorks: работы уже идут")
	setBit(&t.m7, 4)
	sb(&t.m7, 0, 4, roadWorksDuration)
	switch t.GetRoadside() {
	case RoadsideGrass, RoadsideTrees:
		t.SetRoadside(RoadsideGrassWorks)
	case RoadsidePaved, RoadsideStreetLights:
		t.SetRoadside(RoadsidePavedWorks)
	}
}

// DecreaseRoadWorksCounter уменьшает счётчик дорожных работ на единицу.
// Возвращает true ровно на том вызове, который опустошил счётчик; этот
// вызов снимает флаг работ и возвращает обочине обычный вид.
// Предусловие: HasRoadWorks.
func (t *Tile) DecreaseRoadWorksCounter() bool {
	assert(t.HasRoadWorks(), "DecreaseRoadWorksCounter без активных работ")
	c := gb(t.m7, 0, 4) - 1
	sb(&t.m7, 0, 4, c)
	if c > 0 {
		return false
	}
	clrBit(&t.m7, 4)
	switch t.GetRoadside() {
	case RoadsideGrassWorks:
		t.SetRoadside(RoadsideGrass)
	case RoadsidePavedWorks:
		t.SetRoadside(RoadsidePaved)
	}
	return true
}

// GetDisallowedRoadDirections возвращает запрет направлений движения.
// Предусловие: IsNormalRoadTile.
func (t *Tile) GetDisallowedRoadDirections() DisallowedRoadDirections {
	assert(t.IsNormalRoadTile(), "GetDisallowedRoadDirections вне дорожного полотна")
	return DisallowedRoadDirections(gb(t.m3, 0, 2))
}

// SetDisallowedRoadDirections записывает запрет направлений движения.
// Предусловие: IsNormalRoadTile.
func (t *Tile) SetDisallowedRoadDirections(drd DisallowedRoadDirections) {
	assert(t.IsNormalRoadTile(), "SetDisallowedRoadDirections вне дорожного полотна")
	sb(&t.m3, 0, 2, uint8(drd))
}

// GetRoadBridgeType возвращает тип автодорожного моста.
// Предусловие: IsRoadBridgeTile.
func (t *Tile) GetRoadBridgeType() uint8 {
	assert(t.IsRoadBridgeTile(), "GetRoadBridgeType вне рампы моста")
	return t.m7
}

// SetRoadBridgeType записывает тип автодорожного моста.
// Предусловие: IsRoadBridgeTile.
func (t *Tile) SetRoadBridgeType(bt uint8) {
	assert(t.IsRoadBridgeTile(), "SetRoadBridgeType вне рампы моста")
	t.m7 = bt
}

// IsExtendedRoadBridge сообщает, является ли рампа кастомным
// предмостьем: дорожные биты хотя бы одного присутствующего типа
// отклоняются от оси моста. Предусловие: IsRoadBridgeTile.
func (t *Tile) IsExtendedRoadBridge() bool {
	assert(t.IsRoadBridgeTile(), "IsExtendedRoadBridge вне рампы моста")
	axisBits := t.GetTunnelBridgeDirection().Axis().RoadBits()
	for rt := RoadTypeRoad; rt < RoadTypeCount; rt++ {
		if t.HasTileRoadType(rt) && t.GetRoadBits(rt) != axisBits {
			return true
		}
	}
	return false
}

// MakeRoadNormal превращает запись в обычное дорожное полотно,
// полностью перезаписывая все значимые диапазоны. Дорожные биты
// записываются только для типов, входящих в rot.
func (t *Tile) MakeRoadNormal(bits RoadBits, rot RoadTypes, town TownID, road, tram Owner) {
	t.setKind(TypeRoad, SubtypeTrack)
	t.m1 = uint8(road) & ownerMask
	t.m2 = uint16(town)
	t.m3 = 0
	t.m4 = 0
	if rot.Has(RoadTypeRoad) {
		sb(&t.m4, 0, 4, uint8(bits))
	}
	if rot.Has(RoadTypeTram) {
		sb(&t.m4, 4, 4, uint8(bits))
	}
	t.m5 = uint8(tram) & ownerMask
	t.m6 = uint8(rot) & 0x03
	t.m7 = 0
	t.m8 = 0
}

// MakeRoadBridgeRamp превращает запись в рампу автодорожного моста.
// Дорожные биты обоих присутствующих типов ставятся по оси рампы:
// свежая рампа — не кастомное предмостье.
func (t *Tile) MakeRoadBridgeRamp(road, tram Owner, bridgeType uint8, d DiagDirection, rot RoadTypes, town TownID) {
	t.setKind(TypeRoad, SubtypeBridge)
	t.m1 = uint8(road) & ownerMask
	t.m2 = uint16(town)
	t.m3 = uint8(d) << 6
	t.m4 = 0
	axisBits := d.Axis().RoadBits()
	if rot.Has(RoadTypeRoad) {
		sb(&t.m4, 0, 4, uint8(axisBits))
	}
	if rot.Has(RoadTypeTram) {
		sb(&t.m4, 4, 4, uint8(axisBits))
	}
	t.m5 = uint8(tram) & ownerMask
	t.m6 = uint8(rot) & 0x03
	t.m7 = bridgeType
	t.m8 = 0
}

// MakeNormalRoadFromBridge превращает рампу моста обратно в обычное
// полотно. Владельцы, город, типы дорог и дорожные биты сохраняются;
// направление рампы и тип моста стираются. Дорожные биты остаются
// мостовыми — вызывающая сторона обязана поправить их под новую
// геометрию сама.
func (t *Tile) MakeNormalRoadFromBridge() {
	assert(t.IsRoadBridgeTile(), "MakeNormalRoadFromBridge вне рампы моста")
	t.setKind(TypeRoad, SubtypeTrack)
	t.m3 &= 1 << 4 // остаётся только снег/пустыня
	t.m7 = 0
}

// MakeRoadBridgeFromRoad превращает обычное полотно в рампу моста.
// Владельцы, город, типы дорог и дорожные биты сохраняются; запреты
// направлений и дорожные работы стираются. Дорожные биты остаются
// прежними — вызывающая сторона обязана поправить их под ось моста.
func (t *Tile) MakeRoadBridgeFromRoad(bridgeType uint8, d DiagDirection) {
	assert(t.IsNormalRoadTile(), "MakeRoadBridgeFromRoad вне дорожного полотна")
	t.setKind(TypeRoad, SubtypeBridge)
	t.m3 = t.m3&(1<<4) | uint8(d)<<6
	t.m7 = bridgeType
}

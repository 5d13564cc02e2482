package tile

// Конструкторы недорожных подтипов. Каждый Make* полностью
// переинициализирует значимые диапазоны записи под новый подтип;
// записи не уничтожаются, только переинтерпретируются на месте.

// MakeVoid превращает запись в краевой тайл за пределами играбельной
// области. Высота тоже обнуляется: край карты плоский.
func (t *Tile) MakeVoid() {
	t.setKind(TypeVoid, 0)
	t.height = 0
	t.m1 = 0
	t.m2 = 0
	t.m3 = 0
	t.m4 = 0
	t.m5 = 0
	t.m6 = 0
	t.m7 = 0
	t.m8 = 0
}

// MakeClear превращает запись в открытую землю без владельца
func (t *Tile) MakeClear() {
	t.setKind(TypeGround, GroundClear)
	t.m1 = uint8(OwnerNone)
	t.m2 = 0
	t.m3 = 0
	t.m4 = 0
	t.m5 = 0
	t.m6 = 0
	t.m7 = 0
	t.m8 = 0
}

// MakeTrees превращает запись в землю с деревьями указанной густоты (0..3)
func (t *Tile) MakeTrees(density uint8) {
	t.MakeClear()
	t.setKind(TypeGround, GroundTrees)
	sb(&t.m4, 0, 2, density)
}

// GetTreeDensity возвращает густоту деревьев.
// Предусловие: тайл — земля с деревьями.
func (t *Tile) GetTreeDensity() uint8 {
	assert(t.IsSubtype(TypeGround, GroundTrees), "GetTreeDensity вне деревьев")
	return gb(t.m4, 0, 2)
}

// MakeWater превращает запись в воду с указанным владельцем и
// случайными битами.
func (t *Tile) MakeWater(o Owner, random uint8) {
	t.setKind(TypeWater, 0)
	t.m1 = uint8(o) & ownerMask
	t.m2 = 0
	t.m3 = random
	t.m4 = 0
	t.m5 = 0
	t.m6 = 0
	t.m7 = 0
	t.m8 = 0
}

// MakeHouse превращает запись в городской дом. Владельца у дома нет:
// он принадлежит городу из m2.
func (t *Tile) MakeHouse(town TownID, random uint8) {
	t.setKind(TypeHouse, 0)
	t.m1 = 0
	t.m2 = uint16(town)
	t.m3 = random
	t.m4 = 0
	t.m5 = 0
	t.m6 = 0
	t.m7 = 0
	t.m8 = 0
}

// MakeIndustry превращает запись в тайл предприятия
func (t *Tile) MakeIndustry(industryID uint16, random uint8) {
	t.setKind(TypeIndustry, 0)
	t.m1 = 0
	t.m2 = industryID
	t.m3 = random
	t.m4 = 0
	t.m5 = 0
	t.m6 = 0
	t.m7 = 0
	t.m8 = 0
}

// MakeObject превращает запись в отдельно стоящий объект
func (t *Tile) MakeObject(o Owner, objectID uint16, random uint8) {
	t.setKind(TypeObject, 0)
	t.m1 = uint8(o) & ownerMask
	t.m2 = objectID
	t.m3 = random
	t.m4 = 0
	t.m5 = 0
	t.m6 = 0
	t.m7 = 0
	t.m8 = 0
}

// MakeStation превращает запись в тайл станции
func (t *Tile) MakeStation(o Owner, town TownID) {
	t.setKind(TypeStation, 0)
	t.m1 = uint8(o) & ownerMask
	t.m2 = uint16(town)
	t.m3 = 0
	t.m4 = 0
	t.m5 = 0
	t.m6 = 0
	t.m7 = 0
	t.m8 = 0
}

// MakeRailTrack превращает запись в железнодорожное полотно.
//
// Раскладка (TypeRailway/SubtypeTrack): m1 — владелец,
// m4 биты 0..5 — рельсовые пути, m8 биты 0..3 — тип рельсов.
func (t *Tile) MakeRailTrack(o Owner, bits TrackBits, rat RailType) {
	t.setKind(TypeRailway, SubtypeTrack)
	t.m1 = uint8(o) & ownerMask
	t.m2 = 0
	t.m3 = 0
	t.m4 = uint8(bits) & 0x3F
	t.m5 = 0
	t.m6 = 0
	t.m7 = 0
	t.m8 = uint16(rat) & 0x0F
}

// MakeRailBridgeRamp превращает запись в рампу железнодорожного моста.
//
// Раскладка (TypeRailway/SubtypeBridge): m1 — владелец, m3 биты 6..7 —
// направление, m7 — тип моста, m8 биты 0..3 — тип рельсов.
func (t *Tile) MakeRailBridgeRamp(o Owner, bridgeType uint8, d DiagDirection, rat RailType) {
	t.setKind(TypeRailway, SubtypeBridge)
	t.m1 = uint8(o) & ownerMask
	t.m2 = 0
	t.m3 = uint8(d) << 6
	t.m4 = 0
	t.m5 = 0
	t.m6 = 0
	t.m7 = bridgeType
	t.m8 = uint16(rat) & 0x0F
}

// MakeRoadTunnel превращает запись в портал автодорожного тоннеля.
//
// Раскладка (TypeMisc/MiscTunnel): m1 — владелец дороги, m2 — город,
// m3 биты 6..7 — направление, m5 — владелец трамвая, m6 биты 0..1 —
// типы дорог.
func (t *Tile) MakeRoadTunnel(road, tram Owner, d DiagDirection, rot RoadTypes, town TownID) {
	t.setKind(TypeMisc, MiscTunnel)
	t.m1 = uint8(road) & ownerMask
	t.m2 = uint16(town)
	t.m3 = uint8(d) << 6
	t.m4 = 0
	t.m5 = uint8(tram) & ownerMask
	t.m6 = uint8(rot) & 0x03
	t.m7 = 0
	t.m8 = 0
}

// MakeAqueduct превращает запись в рампу акведука
func (t *Tile) MakeAqueduct(o Owner, d DiagDirection) {
	t.setKind(TypeMisc, MiscAqueduct)
	t.m1 = uint8(o) & ownerMask
	t.m2 = 0
	t.m3 = uint8(d) << 6
	t.m4 = 0
	t.m5 = 0
	t.m6 = 0
	t.m7 = 0
	t.m8 = 0
}

// GetRailTrackBits возвращает рельсовые пути тайла.
// Предусловие: IsRailTrackTile.
func (t *Tile) GetRailTrackBits() TrackBits {
	assert(t.IsRailTrackTile(), "GetRailTrackBits вне рельсового полотна")
	return TrackBits(gb(t.m4, 0, 6))
}

// SetRailTrackBits записывает рельсовые пути тайла.
// Предусловие: IsRailTrackTile.
func (t *Tile) SetRailTrackBits(bits TrackBits) {
	assert(t.IsRailTrackTile(), "SetRailTrackBits вне рельсового полотна")
	sb(&t.m4, 0, 6, uint8(bits))
}

// GetRailType возвращает тип рельсов железнодорожного тайла.
// Предусловие: IsRailwayTile.
func (t *Tile) GetRailType() RailType {
	assert(t.IsRailwayTile(), "GetRailType вне железной дороги")
	return RailType(t.m8 & 0x0F)
}

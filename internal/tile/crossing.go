package tile

// Кодек железнодорожного переезда: тайл мультиплексирует дорожное и
// рельсовое состояние в одной записи.
//
// Раскладка (TypeMisc/MiscCrossing):
//
//	m1 биты 0..4 — владелец рельсов
//	m2           — город
//	m3 бит 0     — ось дороги, бит 4 — снег/пустыня
//	m4 бит 0     — шлагбаум закрыт, бит 1 — резервация пути
//	m5 биты 0..4 — владелец трамвая
//	m6 биты 0..1 — присутствующие типы дорог
//	m7 биты 0..4 — владелец дороги
//	m8 биты 0..3 — тип рельсов
//
// Ось рельсов отдельно не хранится: на корректном переезде она всегда
// перпендикулярна оси дороги и выводится из неё.

// GetCrossingRoadAxis возвращает ось дороги на переезде.
// Предусловие: IsLevelCrossingTile.
func (t *Tile) GetCrossingRoadAxis() Axis {
	assert(t.IsLevelCrossingTile(), "GetCrossingRoadAxis вне переезда")
	return Axis(gb(t.m3, 0, 1))
}

// GetCrossingRailAxis возвращает ось рельсов на переезде.
// Предусловие: IsLevelCrossingTile.
func (t *Tile) GetCrossingRailAxis() Axis {
	return t.GetCrossingRoadAxis().Other()
}

// GetCrossingRoadBits возвращает дорожные биты переезда: прямую вдоль
// оси дороги.
func (t *Tile) GetCrossingRoadBits() RoadBits {
	return t.GetCrossingRoadAxis().RoadBits()
}

// GetCrossingRailTrack возвращает рельсовый путь переезда
func (t *Tile) GetCrossingRailTrack() Track {
	return t.GetCrossingRailAxis().Track()
}

// GetCrossingRailBits возвращает множество рельсовых путей переезда
func (t *Tile) GetCrossingRailBits() TrackBits {
	return t.GetCrossingRailTrack().Bits()
}

// HasCrossingReservation сообщает, зарезервирован ли путь через переезд
// приближающимся поездом. Предусловие: IsLevelCrossingTile.
func (t *Tile) HasCrossingReservation() bool {
	assert(t.IsLevelCrossingTile(), "HasCrossingReservation вне переезда")
	return hasBit(t.m4, 1)
}

// SetCrossingReservation записывает состояние резервации пути.
// Резервацией управляет сигнальная подсистема; кодек только хранит флаг.
// Предусловие: IsLevelCrossingTile.
func (t *Tile) SetCrossingReservation(reserved bool) {
	assert(t.IsLevelCrossingTile(), "SetCrossingReservation вне переезда")
	if reserved {
		setBit(&t.m4, 1)
	} else {
		clrBit(&t.m4, 1)
	}
}

// GetCrossingReservationTrackBits возвращает зарезервированные рельсовые
// пути: путь переезда при активной резервации, иначе пустое множество.
func (t *Tile) GetCrossingReservationTrackBits() TrackBits {
	if !t.HasCrossingReservation() {
		return TrackBitsNone
	}
	return t.GetCrossingRailBits()
}

// IsCrossingBarred сообщает, закрыт ли шлагбаум для автотранспорта.
// Предусловие: IsLevelCrossingTile.
func (t *Tile) IsCrossingBarred() bool {
	assert(t.IsLevelCrossingTile(), "IsCrossingBarred вне переезда")
	return hasBit(t.m4, 0)
}

// SetCrossingBarred записывает состояние шлагбаума.
// Предусловие: IsLevelCrossingTile.
func (t *Tile) SetCrossingBarred(barred bool) {
	assert(t.IsLevelCrossingTile(), "SetCrossingBarred вне переезда")
	if barred {
		setBit(&t.m4, 0)
	} else {
		clrBit(&t.m4, 0)
	}
}

// BarCrossing закрывает шлагбаум переезда
func (t *Tile) BarCrossing() { t.SetCrossingBarred(true) }

// UnbarCrossing открывает шлагбаум переезда
func (t *Tile) UnbarCrossing() { t.SetCrossingBarred(false) }

// GetCrossingRailType возвращает тип рельсов переезда
func (t *Tile) GetCrossingRailType() RailType {
	assert(t.IsLevelCrossingTile(), "GetCrossingRailType вне переезда")
	return RailType(t.m8 & 0x0F)
}

// MakeRoadCrossing превращает запись в железнодорожный переезд,
// полностью перезаписывая все значимые диапазоны. Шлагбаум открыт,
// резервации нет.
func (t *Tile) MakeRoadCrossing(road, tram, rail Owner, roadAxis Axis, rat RailType, rot RoadTypes, town TownID) {
	t.setKind(TypeMisc, MiscCrossing)
	t.m1 = uint8(rail) & ownerMask
	t.m2 = uint16(town)
	t.m3 = uint8(roadAxis) & 0x01
	t.m4 = 0
	t.m5 = uint8(tram) & ownerMask
	t.m6 = uint8(rot) & 0x03
	t.m7 = uint8(road) & ownerMask
	t.m8 = uint16(rat) & 0x0F
}

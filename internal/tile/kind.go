package tile

// Type — физический тип тайла. Хранится в старшем ниббле байта-дискриминанта.
// Каждый аксессор кодека читает тип как предусловие: вызов аксессора на тайле
// неподходящего типа — нарушение контракта, а не ошибочная ветка исполнения.
type Type uint8

const (
	TypeVoid     Type = iota // край карты, за пределами играбельной области
	TypeGround               // открытая земля (поляна, деревья)
	TypeWater                // вода
	TypeRailway              // железная дорога (полотно или мост)
	TypeRoad                 // автодорога (полотно или мост)
	TypeMisc                 // переезды, тоннели, акведуки
	TypeStation              // станция
	TypeIndustry             // предприятие
	TypeHouse                // городской дом
	TypeObject               // отдельно стоящий объект (маяк, передатчик…)
)

// String возвращает строковое представление типа тайла
func (tt Type) String() string {
	switch tt {
	case TypeVoid:
		return "void"
	case TypeGround:
		return "ground"
	case TypeWater:
		return "water"
	case TypeRailway:
		return "railway"
	case TypeRoad:
		return "road"
	case TypeMisc:
		return "misc"
	case TypeStation:
		return "station"
	case TypeIndustry:
		return "industry"
	case TypeHouse:
		return "house"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Subtype — уточнение внутри типа. Хранится в младшем ниббле дискриминанта.
// Значения переиспользуются между типами: смысл ниббла зависит от Type,
// так же как смысл остальных полей записи.
type Subtype uint8

// Подтипы Railway и Road.
const (
	SubtypeTrack  Subtype = iota // обычное полотно
	SubtypeBridge                // рампа моста
)

// Подтипы Ground.
const (
	GroundClear Subtype = iota // поляна
	GroundTrees                // деревья
)

// Подтипы Misc.
const (
	MiscCrossing Subtype = iota // железнодорожный переезд
	MiscTunnel                  // тоннель (автодорожный)
	MiscAqueduct                // акведук
)

// Type возвращает тип тайла
func (t *Tile) Type() Type {
	return Type(t.kind >> 4)
}

// Subtype возвращает подтип тайла внутри его типа
func (t *Tile) Subtype() Subtype {
	return Subtype(t.kind & 0x0F)
}

// IsType проверяет, имеет ли тайл указанный тип
func (t *Tile) IsType(tt Type) bool {
	return t.Type() == tt
}

// IsSubtype проверяет, имеет ли тайл указанный тип и подтип
func (t *Tile) IsSubtype(tt Type, st Subtype) bool {
	return t.Type() == tt && t.Subtype() == st
}

// setKind записывает дискриминант. Используется только конструкторами Make*.
func (t *Tile) setKind(tt Type, st Subtype) {
	t.kind = uint8(tt)<<4 | uint8(st)&0x0F
}

// IsVoid сообщает, лежит ли тайл за краем карты
func (t *Tile) IsVoid() bool { return t.IsType(TypeVoid) }

// IsGround сообщает, является ли тайл открытой землёй
func (t *Tile) IsGround() bool { return t.IsType(TypeGround) }

// IsWater сообщает, является ли тайл водой
func (t *Tile) IsWater() bool { return t.IsType(TypeWater) }

// IsRailwayTile сообщает, является ли тайл железнодорожным (полотно или мост)
func (t *Tile) IsRailwayTile() bool { return t.IsType(TypeRailway) }

// IsRailTrackTile сообщает, является ли тайл обычным железнодорожным полотном
func (t *Tile) IsRailTrackTile() bool { return t.IsSubtype(TypeRailway, SubtypeTrack) }

// IsRailBridgeTile сообщает, является ли тайл рампой железнодорожного моста
func (t *Tile) IsRailBridgeTile() bool { return t.IsSubtype(TypeRailway, SubtypeBridge) }

// IsRoadTile сообщает, является ли тайл автодорожным (полотно или мост).
// Переезды сюда не входят: они относятся к TypeMisc.
func (t *Tile) IsRoadTile() bool { return t.IsType(TypeRoad) }

// IsNormalRoadTile сообщает, является ли тайл обычным дорожным полотном
func (t *Tile) IsNormalRoadTile() bool { return t.IsSubtype(TypeRoad, SubtypeTrack) }

// IsRoadBridgeTile сообщает, является ли тайл рампой автодорожного моста
func (t *Tile) IsRoadBridgeTile() bool { return t.IsSubtype(TypeRoad, SubtypeBridge) }

// IsLevelCrossingTile сообщает, является ли тайл железнодорожным переездом
func (t *Tile) IsLevelCrossingTile() bool { return t.IsSubtype(TypeMisc, MiscCrossing) }

// IsTunnelTile сообщает, является ли тайл порталом тоннеля
func (t *Tile) IsTunnelTile() bool { return t.IsSubtype(TypeMisc, MiscTunnel) }

// IsAqueductTile сообщает, является ли тайл рампой акведука
func (t *Tile) IsAqueductTile() bool { return t.IsSubtype(TypeMisc, MiscAqueduct) }

// IsBridgeTile сообщает, является ли тайл рампой какого-либо моста:
// автодорожного, железнодорожного или акведука.
func (t *Tile) IsBridgeTile() bool {
	return (t.Subtype() == SubtypeBridge && (t.IsType(TypeRoad) || t.IsType(TypeRailway))) ||
		t.IsAqueductTile()
}

// IsStation сообщает, является ли тайл станцией
func (t *Tile) IsStation() bool { return t.IsType(TypeStation) }

// IsIndustry сообщает, является ли тайл предприятием
func (t *Tile) IsIndustry() bool { return t.IsType(TypeIndustry) }

// IsHouse сообщает, является ли тайл городским домом
func (t *Tile) IsHouse() bool { return t.IsType(TypeHouse) }

// IsObject сообщает, является ли тайл отдельно стоящим объектом
func (t *Tile) IsObject() bool { return t.IsType(TypeObject) }

// MayHaveRoad сообщает, может ли запись тайла нести дорожное состояние:
// дорожное полотно, рампа автодорожного моста, переезд или тоннель.
// Это ворота для дорожных аксессоров; сами диапазоны бит у подтипов разные.
func (t *Tile) MayHaveRoad() bool {
	return t.IsRoadTile() || t.IsLevelCrossingTile() || t.IsTunnelTile()
}

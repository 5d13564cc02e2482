package tile

// RoadBits — битовая маска диагональных направлений, в которые дорога
// уходит с тайла. Карта повёрнута на 45°, поэтому «стороны света» здесь
// диагональные: NW, SW, SE, NE.
type RoadBits uint8

const (
	RoadBitsNone RoadBits = 0
	RoadBitNW    RoadBits = 1 << 0
	RoadBitSW    RoadBits = 1 << 1
	RoadBitSE    RoadBits = 1 << 2
	RoadBitNE    RoadBits = 1 << 3

	RoadBitsX   = RoadBitSW | RoadBitNE // прямая вдоль оси X
	RoadBitsY   = RoadBitNW | RoadBitSE // прямая вдоль оси Y
	RoadBitsAll = RoadBitsX | RoadBitsY
)

// Has проверяет, установлены ли все биты из b
func (rb RoadBits) Has(b RoadBits) bool { return rb&b == b }

// String возвращает строку вида "NW|SE" для отладки и логов
func (rb RoadBits) String() string {
	if rb == RoadBitsNone {
		return "none"
	}
	names := [4]string{"NW", "SW", "SE", "NE"}
	s := ""
	for i := 0; i < 4; i++ {
		if rb&(1<<i) != 0 {
			if s != "" {
				s += "|"
			}
			s += names[i]
		}
	}
	return s
}

// RoadType — класс транспорта на тайле. Дорога и трамвай занимают
// независимые «полосы» и могут сосуществовать на одном тайле.
type RoadType uint8

const (
	RoadTypeRoad RoadType = iota
	RoadTypeTram

	RoadTypeCount = 2
)

// Other возвращает комплементарный тип: ROAD↔TRAM
func (rt RoadType) Other() RoadType { return rt ^ 1 }

// String возвращает строковое представление типа дороги
func (rt RoadType) String() string {
	if rt == RoadTypeTram {
		return "tram"
	}
	return "road"
}

// RoadTypes — множество присутствующих на тайле типов дорог
type RoadTypes uint8

const (
	RoadTypesNone RoadTypes = 0
	RoadTypesRoad RoadTypes = 1 << RoadTypeRoad
	RoadTypesTram RoadTypes = 1 << RoadTypeTram
	RoadTypesAll            = RoadTypesRoad | RoadTypesTram
)

// Bit возвращает одноэлементное множество из типа дороги
func (rt RoadType) Bit() RoadTypes { return 1 << rt }

// Has проверяет наличие типа дороги в множестве
func (rot RoadTypes) Has(rt RoadType) bool { return rot&rt.Bit() != 0 }

// Owner — владелец тайла или отдельной его грани (дороги, трамвая,
// рельсов). Значения 0..14 — компании; остальные — выделенные владельцы.
type Owner uint8

const (
	OwnerTown  Owner = 0x0F // дорога принадлежит городу
	OwnerNone  Owner = 0x10 // ничья земля
	OwnerWater Owner = 0x11 // море/реки
	OwnerDeity Owner = 0x12 // игровой скрипт

	ownerMask = 0x1F // владелец хранится в 5 битах
)

// CompanyOwner возвращает владельца-компанию с указанным номером (0..14)
func CompanyOwner(n uint8) Owner { return Owner(n) }

// IsCompany сообщает, является ли владелец компанией
func (o Owner) IsCompany() bool { return o < OwnerTown }

// TownID — идентификатор города, которому принадлежит дорога или дом
type TownID uint16

// Axis — одна из двух осей карты
type Axis uint8

const (
	AxisX Axis = 0 // направление NE—SW
	AxisY Axis = 1 // направление NW—SE
)

// Other возвращает перпендикулярную ось
func (a Axis) Other() Axis { return a ^ 1 }

// RoadBits возвращает прямые дорожные биты вдоль оси
func (a Axis) RoadBits() RoadBits {
	if a == AxisX {
		return RoadBitsX
	}
	return RoadBitsY
}

// Track возвращает прямой рельсовый путь вдоль оси
func (a Axis) Track() Track { return Track(a) }

// String возвращает "X" или "Y"
func (a Axis) String() string {
	if a == AxisX {
		return "X"
	}
	return "Y"
}

// DiagDirection — одно из четырёх диагональных направлений
type DiagDirection uint8

const (
	DiagDirNE DiagDirection = iota
	DiagDirSE
	DiagDirSW
	DiagDirNW
)

// Reverse возвращает противоположное направление
func (d DiagDirection) Reverse() DiagDirection { return d ^ 2 }

// Axis возвращает ось, вдоль которой лежит направление
func (d DiagDirection) Axis() Axis { return Axis(d & 1) }

// RoadBits возвращает единственный дорожный бит в сторону направления
func (d DiagDirection) RoadBits() RoadBits { return RoadBits(1 << (3 - d)) }

// String возвращает строковое представление направления
func (d DiagDirection) String() string {
	return [4]string{"NE", "SE", "SW", "NW"}[d&3]
}

// Track — рельсовый путь внутри тайла. Здесь нужны только прямые пути
// по осям; диагональные половинки перечислены для полноты множества.
type Track uint8

const (
	TrackX Track = iota
	TrackY
	TrackUpper
	TrackLower
	TrackLeft
	TrackRight
)

// Bits возвращает одноэлементное множество путей
func (tr Track) Bits() TrackBits { return 1 << tr }

// TrackBits — множество рельсовых путей тайла
type TrackBits uint8

const (
	TrackBitsNone TrackBits = 0
	TrackBitsX              = TrackBits(1) << TrackX
	TrackBitsY              = TrackBits(1) << TrackY
)

// RailType — тип рельсового полотна
type RailType uint8

const (
	RailTypeRail RailType = iota
	RailTypeElectric
	RailTypeMonorail
	RailTypeMaglev
)

// Roadside — оформление обочины дорожного тайла
type Roadside uint8

const (
	RoadsideBarren Roadside = iota
	RoadsideGrass
	RoadsidePaved
	RoadsideStreetLights
	RoadsideTrees
	RoadsideGrassWorks // газон, перекопанный дорожными работами
	RoadsidePavedWorks // тротуар, перекопанный дорожными работами
)

func (r Roadside) String() string {
	switch r {
	case RoadsideBarren:
		return "barren"
	case RoadsideGrass:
		return "grass"
	case RoadsidePaved:
		return "paved"
	case RoadsideStreetLights:
		return "street_lights"
	case RoadsideTrees:
		return "trees"
	case RoadsideGrassWorks:
		return "grass_works"
	case RoadsidePavedWorks:
		return "paved_works"
	}
	return "unknown"
}

// DisallowedRoadDirections — запрет движения по направлениям тайла
// (односторонние дороги)
type DisallowedRoadDirections uint8

const (
	DisallowedNone DisallowedRoadDirections = iota
	DisallowedSouthbound
	DisallowedNorthbound
	DisallowedBoth
)

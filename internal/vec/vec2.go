package vec

import "math"

// Vec2 представляет 2D координаты
type Vec2 struct {
	X, Y int
}

// ToRegionCoords преобразует координаты тайла в координаты региона
func (v Vec2) ToRegionCoords() Vec2 {
	return Vec2{X: v.X >> 6, Y: v.Y >> 6} // Деление на 64
}

// LocalInRegion возвращает локальные координаты внутри региона
func (v Vec2) LocalInRegion() Vec2 {
	return Vec2{X: v.X & 0x3F, Y: v.Y & 0x3F} // Модуль 64
}

// ManhattanTo возвращает манхэттенское расстояние до другой точки
func (v Vec2) ManhattanTo(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := v.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

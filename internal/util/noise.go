package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseSource — детерминированный источник шума Перлина с фиксированным
// сидом. В отличие от глобального генератора, несколько источников с
// разными сидами могут жить одновременно (высоты, влажность, города).
type NoiseSource struct {
	p *perlin.Perlin
}

// NewNoiseSource создаёт источник шума с указанным сидом
func NewNoiseSource(seed int64) *NoiseSource {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &NoiseSource{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

// At2D возвращает значение шума для указанных координат (от 0 до 1)
func (ns *NoiseSource) At2D(x, y float64) float64 {
	// Noise2D отдаёт значение от -1 до 1
	return (ns.p.Noise2D(x, y) + 1.0) / 2.0
}

// Package sim содержит общие численные помощники для физических движков:
// векторы, углы, ограничения и взвешенный случайный выбор.
package sim

import (
	"math"
	"math/rand/v2"
)

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// Normalize возвращает единичный вектор; нулевой вектор остается нулевым
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return v.Scale(1 / l)
}

// Dist расстояние между точками
func Dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundTo округляет до places знаков после запятой
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Round2 округление до сотых, так координаты уходят клиенту
func Round2(v float64) float64 { return RoundTo(v, 2) }

// Round1 округление до десятых
func Round1(v float64) float64 { return RoundTo(v, 1) }

func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Finite true для обычного числа (не NaN и не бесконечность)
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NormalizeAngle приводит угол к (-π, π]
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// TurnToward поворачивает current к desired не больше чем на maxTurn
func TurnToward(current, desired, maxTurn float64) float64 {
	diff := NormalizeAngle(desired - current)
	if math.Abs(diff) <= maxTurn {
		return desired
	}
	return current + Sign(diff)*maxTurn
}

// BounceAngle линейно интерполирует угол отскока в радианах
// по смещению удара offset из [-1, 1] от minDeg до maxDeg
func BounceAngle(offset, minDeg, maxDeg float64) float64 {
	o := math.Abs(Clamp(offset, -1, 1))
	return (minDeg + o*(maxDeg-minDeg)) * math.Pi / 180
}

// Deg2Rad перевод градусов в радианы
func Deg2Rad(d float64) float64 { return d * math.Pi / 180 }

// RandRange равномерное число из [lo, hi)
func RandRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Shuffle перемешивание Фишера-Йетса на месте
func Shuffle[T any](rng *rand.Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Sample возвращает n случайных различных элементов (копия)
func Sample[T any](rng *rand.Rand, s []T, n int) []T {
	cp := append([]T(nil), s...)
	Shuffle(rng, cp)
	if n > len(cp) {
		n = len(cp)
	}
	return cp[:n]
}

// Pick случайный элемент непустого среза
func Pick[T any](rng *rand.Rand, s []T) T {
	return s[rng.IntN(len(s))]
}

// Weighted элемент с весом для взвешенного выбора
type Weighted[T any] struct {
	Value  T
	Weight int
}

// PickWeighted выбирает элемент пропорционально весу.
// Пустой срез или нулевые веса дают нулевое значение.
func PickWeighted[T any](rng *rand.Rand, items []Weighted[T]) T {
	total := 0
	for _, it := range items {
		if it.Weight > 0 {
			total += it.Weight
		}
	}
	var zero T
	if total == 0 {
		return zero
	}
	r := rng.IntN(total)
	for _, it := range items {
		if it.Weight <= 0 {
			continue
		}
		if r < it.Weight {
			return it.Value
		}
		r -= it.Weight
	}
	return zero
}

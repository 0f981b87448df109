// Package projector turns pointer rays into ground-plane coordinates.
package projector

import "math"

// DefaultPrecision is the number of decimals ground points are snapped to.
const DefaultPrecision = 2

// GroundPoint is a resolved position on the ground plane.
type GroundPoint struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Ray is a pointer ray in world space. Direction need not be normalized.
type Ray struct {
	Origin    [3]float64 `json:"origin"`
	Direction [3]float64 `json:"direction"`
}

// Projector resolves a pointer ray to a ground point. ok is false when the
// ray never reaches the ground.
type Projector interface {
	Project(ray Ray) (GroundPoint, bool)
}

// Plane intersects rays with the horizontal plane y = Height.
type Plane struct {
	Height    float64
	Precision int
}

var _ Projector = Plane{}

func NewPlane() Plane {
	return Plane{Precision: DefaultPrecision}
}

func (p Plane) Project(ray Ray) (GroundPoint, bool) {
	dy := ray.Direction[1]
	if math.Abs(dy) < 1e-9 {
		return GroundPoint{}, false
	}
	t := (p.Height - ray.Origin[1]) / dy
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return GroundPoint{}, false
	}
	return GroundPoint{
		X: Snap(ray.Origin[0]+t*ray.Direction[0], p.Precision),
		Z: Snap(ray.Origin[2]+t*ray.Direction[2], p.Precision),
	}, true
}

// Snap rounds v to the given number of decimals. Negative precision disables snapping.
func Snap(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}

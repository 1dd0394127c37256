package vmath

import (
	"math"

	"github.com/arenashooter/core/internal/core/visit"
)

// Vec3 is a float32 3D vector in world units.
type Vec3 struct {
	X, Y, Z float32
}

func V3(x, y, z float32) Vec3 { return Vec3{x, y, z} }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func (a Vec3) Scale(s float32) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

func (a Vec3) Dot(b Vec3) float32 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func (a Vec3) NormSq() float32 { return a.Dot(a) }

// Norm is the Euclidean length.
func (a Vec3) Norm() float32 {
	return float32(math.Sqrt(float64(a.NormSq())))
}

func (a Vec3) Normalize() Vec3 {
	n := a.Norm()
	if n == 0 {
		return Vec3{}
	}
	return a.Scale(1 / n)
}

// Distance is the Euclidean distance between two points.
func Distance(a, b Vec3) float32 {
	return a.Sub(b).Norm()
}

// Horizontal drops the vertical component.
func (a Vec3) Horizontal() Vec3 { return Vec3{a.X, 0, a.Z} }

func (a *Vec3) Visit(name string, v *visit.Visitor) error {
	if err := v.EnterRegion(name); err != nil {
		return err
	}
	if err := v.VisitF32("X", &a.X); err != nil {
		return err
	}
	if err := v.VisitF32("Y", &a.Y); err != nil {
		return err
	}
	if err := v.VisitF32("Z", &a.Z); err != nil {
		return err
	}
	return v.LeaveRegion()
}

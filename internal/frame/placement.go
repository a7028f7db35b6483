// Package frame maps local-frame samples into the global simulation frame.
package frame

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Placement is a rigid transform: rotate, then translate. A nil Rotation is
// the identity.
type Placement struct {
	Translation r3.Vec
	Rotation    *r3.Mat
}

// Identity returns the placement that leaves points and directions unchanged.
func Identity() Placement {
	return Placement{}
}

// NewPlacement builds a placement rotating by angle radians about axis and
// then translating. A zero angle or zero axis yields no rotation.
func NewPlacement(translation, axis r3.Vec, angle float64) Placement {
	p := Placement{Translation: translation}
	if angle == 0 || r3.Norm(axis) == 0 {
		return p
	}
	p.Rotation = RotationMatrix(r3.NewRotation(angle, axis))
	return p
}

// RotationMatrix materialises a quaternion rotation as a 3x3 matrix.
func RotationMatrix(rot r3.Rotation) *r3.Mat {
	x := rot.Rotate(r3.Vec{X: 1})
	y := rot.Rotate(r3.Vec{Y: 1})
	z := rot.Rotate(r3.Vec{Z: 1})
	return r3.NewMat([]float64{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	})
}

// ToGlobal applies the full rigid transform to a local point.
func ToGlobal(p r3.Vec, pl Placement) r3.Vec {
	return r3.Add(rotate(p, pl), pl.Translation)
}

// ToGlobalDirection rotates a local direction. Translation does not apply to
// free vectors.
func ToGlobalDirection(d r3.Vec, pl Placement) r3.Vec {
	return rotate(d, pl)
}

func rotate(v r3.Vec, pl Placement) r3.Vec {
	if pl.Rotation == nil {
		return v
	}
	return pl.Rotation.MulVec(v)
}

// Provider supplies the placement of the volume a source is attached to at
// emission time t (ns). It is queried once per vertex.
type Provider interface {
	Placement(t float64) Placement
}

// Static is a Provider for geometry that never moves.
type Static Placement

// Placement implements Provider.
func (s Static) Placement(float64) Placement { return Placement(s) }

// ProviderFunc adapts a function to a Provider, for moving geometry.
type ProviderFunc func(t float64) Placement

// Placement implements Provider.
func (f ProviderFunc) Placement(t float64) Placement { return f(t) }

package emission

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GoSim-25-26J-441/vertex-source/pkg/utils"
)

// Interpolation selects how a continuous value is placed inside an energy bin.
type Interpolation string

const (
	// InterpolationUniform spreads values uniformly over the bin.
	InterpolationUniform Interpolation = "uniform"
	// InterpolationCenter returns the bin centre.
	InterpolationCenter Interpolation = "center"
)

// SpatialBin is an axis-aligned voxel in the local frame (mm). A voxel whose
// Min equals its Max is a point source.
type SpatialBin struct {
	Box    r3.Box
	Weight float64
}

// EnergyBin is an energy interval in MeV.
type EnergyBin struct {
	Low    float64
	High   float64
	Weight float64
}

// DirectionBin is a solid-angle patch: a polar-cosine range times an azimuth
// range in radians. Equal bounds on both ranges describe a fixed direction.
type DirectionBin struct {
	CosThetaMin float64
	CosThetaMax float64
	PhiMin      float64
	PhiMax      float64
	Weight      float64
}

// Isotropic returns the single patch covering the whole sphere.
func Isotropic() DirectionBin {
	return DirectionBin{CosThetaMin: -1, CosThetaMax: 1, PhiMin: 0, PhiMax: 2 * math.Pi, Weight: 1}
}

// FixedDirection returns a zero-width patch pointing along dir.
func FixedDirection(dir r3.Vec) DirectionBin {
	u := r3.Unit(dir)
	phi := math.Atan2(u.Y, u.X)
	return DirectionBin{CosThetaMin: u.Z, CosThetaMax: u.Z, PhiMin: phi, PhiMax: phi, Weight: 1}
}

// Data is the raw descriptor set produced by a DataSource.
type Data struct {
	Name                string
	Spatial             []SpatialBin
	Energy              []EnergyBin
	Direction           []DirectionBin
	EnergyInterpolation Interpolation
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	out := &Data{
		Name:                d.Name,
		Spatial:             append([]SpatialBin(nil), d.Spatial...),
		Energy:              append([]EnergyBin(nil), d.Energy...),
		Direction:           append([]DirectionBin(nil), d.Direction...),
		EnergyInterpolation: d.EnergyInterpolation,
	}
	return out
}

// Validate checks bin geometry. Weight degeneracy (all zero, negative) is
// left to Initialize, which reports it as an invalid distribution.
func (d *Data) Validate() error {
	if len(d.Spatial) == 0 {
		return fmt.Errorf("spatial distribution has no bins")
	}
	if len(d.Energy) == 0 {
		return fmt.Errorf("energy distribution has no bins")
	}
	if len(d.Direction) == 0 {
		return fmt.Errorf("direction distribution has no bins")
	}
	switch d.EnergyInterpolation {
	case "", InterpolationUniform, InterpolationCenter:
	default:
		return fmt.Errorf("unknown energy interpolation %q", d.EnergyInterpolation)
	}

	for i, b := range d.Spatial {
		if !finiteVec(b.Box.Min) || !finiteVec(b.Box.Max) {
			return fmt.Errorf("spatial bin %d: non-finite bounds", i)
		}
		if b.Box.Min.X > b.Box.Max.X || b.Box.Min.Y > b.Box.Max.Y || b.Box.Min.Z > b.Box.Max.Z {
			return fmt.Errorf("spatial bin %d: min %v exceeds max %v", i, b.Box.Min, b.Box.Max)
		}
	}
	for i, b := range d.Energy {
		if math.IsNaN(b.Low) || math.IsNaN(b.High) || math.IsInf(b.Low, 0) || math.IsInf(b.High, 0) {
			return fmt.Errorf("energy bin %d: non-finite bounds", i)
		}
		if b.Low < 0 || b.High < b.Low {
			return fmt.Errorf("energy bin %d: invalid interval [%g, %g]", i, b.Low, b.High)
		}
	}
	for i, b := range d.Direction {
		if !utils.IsFinite(b.CosThetaMin) || !utils.IsFinite(b.CosThetaMax) || !utils.IsFinite(b.PhiMin) || !utils.IsFinite(b.PhiMax) {
			return fmt.Errorf("direction bin %d: non-finite bounds", i)
		}
		if b.CosThetaMin < -1 || b.CosThetaMax > 1 || b.CosThetaMin > b.CosThetaMax {
			return fmt.Errorf("direction bin %d: invalid cos(theta) range [%g, %g]", i, b.CosThetaMin, b.CosThetaMax)
		}
		if b.PhiMin > b.PhiMax || b.PhiMax-b.PhiMin > 2*math.Pi+1e-12 {
			return fmt.Errorf("direction bin %d: invalid phi range [%g, %g]", i, b.PhiMin, b.PhiMax)
		}
	}
	return nil
}

func finiteVec(v r3.Vec) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func spatialWeights(bins []SpatialBin) []float64 {
	w := make([]float64, len(bins))
	for i, b := range bins {
		w[i] = b.Weight
	}
	return w
}

func energyWeights(bins []EnergyBin) []float64 {
	w := make([]float64, len(bins))
	for i, b := range bins {
		w[i] = b.Weight
	}
	return w
}

func directionWeights(bins []DirectionBin) []float64 {
	w := make([]float64, len(bins))
	for i, b := range bins {
		w[i] = b.Weight
	}
	return w
}

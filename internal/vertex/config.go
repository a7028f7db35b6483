package vertex

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GoSim-25-26J-441/vertex-source/internal/frame"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/config"
)

// OptionsFromConfig translates the particle, weight and placement sections
// of cfg. The caller still supplies the Model and may set a Logger.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	particle, err := NewParticle(cfg.Particle.Name, cfg.Particle.MassMeV)
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Source:    cfg.Source.Path,
		Particle:  particle,
		Placement: frame.Static(PlacementFromConfig(cfg.Placement)),
	}
	if cfg.Weight != nil {
		if opts.Weight, err = ParseWeightPolicy(cfg.Weight.Policy, cfg.Weight.Value); err != nil {
			return Options{}, fmt.Errorf("weight: %w", err)
		}
	}
	return opts, nil
}

// PlacementFromConfig builds a static placement. A nil section is the
// identity.
func PlacementFromConfig(p *config.Placement) frame.Placement {
	if p == nil {
		return frame.Identity()
	}
	var translation, axis r3.Vec
	if len(p.Translation) == 3 {
		translation = r3.Vec{X: p.Translation[0], Y: p.Translation[1], Z: p.Translation[2]}
	}
	var angle float64
	if p.Rotation != nil && len(p.Rotation.Axis) == 3 {
		axis = r3.Vec{X: p.Rotation.Axis[0], Y: p.Rotation.Axis[1], Z: p.Rotation.Axis[2]}
		angle = p.Rotation.AngleDeg * math.Pi / 180
	}
	return frame.NewPlacement(translation, axis, angle)
}

package vertex

import (
	"fmt"
	"strings"
)

// WeightPolicy decides the generation weight attached to each vertex.
type WeightPolicy interface {
	Weight(m Model) float64
	Name() string
}

// FixedWeight assigns the same weight to every vertex.
type FixedWeight struct {
	Value float64
}

// Weight implements WeightPolicy.
func (w FixedWeight) Weight(Model) float64 { return w.Value }

// Name implements WeightPolicy.
func (FixedWeight) Name() string { return "fixed" }

// YieldWeight weights each vertex by the raw emission yield the model was
// recorded with, so tallies come out per unit source strength.
type YieldWeight struct{}

// Weight implements WeightPolicy.
func (YieldWeight) Weight(m Model) float64 { return m.TotalYield() }

// Name implements WeightPolicy.
func (YieldWeight) Name() string { return "yield" }

// DefaultWeight is the unit weight used when no policy is configured.
func DefaultWeight() WeightPolicy { return FixedWeight{Value: 1} }

// ParseWeightPolicy maps a config policy name to a WeightPolicy. value is
// only read by the fixed policy; nil means unit weight.
func ParseWeightPolicy(name string, value *float64) (WeightPolicy, error) {
	switch strings.ToLower(name) {
	case "", "fixed":
		if value == nil {
			return DefaultWeight(), nil
		}
		return FixedWeight{Value: *value}, nil
	case "yield":
		return YieldWeight{}, nil
	default:
		return nil, fmt.Errorf("unknown weight policy %q", name)
	}
}

package emission

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GoSim-25-26J-441/vertex-source/internal/sampler"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/utils"
)

// Distribution is the emission model: constructed empty, populated once by
// LoadData, made samplable by Initialize, then read-only.
//
// The cumulative tables are immutable after Initialize; the uniform source is
// not, so a Distribution must not be sampled from several goroutines at once.
type Distribution struct {
	source DataSource
	rng    utils.Uniform

	data      *Data
	spatial   *sampler.Discrete
	energy    *sampler.Discrete
	direction *sampler.Discrete
}

// Summary describes a loaded distribution.
type Summary struct {
	Name          string  `json:"name"`
	SpatialBins   int     `json:"spatial_bins"`
	EnergyBins    int     `json:"energy_bins"`
	DirectionBins int     `json:"direction_bins"`
	TotalYield    float64 `json:"total_yield"`
	EnergyMin     float64 `json:"energy_min_mev"`
	EnergyMax     float64 `json:"energy_max_mev"`
	Bounds        r3.Box  `json:"bounds"`
	Initialized   bool    `json:"initialized"`
}

// New returns an empty distribution reading from src and drawing from rng.
func New(src DataSource, rng utils.Uniform) *Distribution {
	return &Distribution{source: src, rng: rng}
}

// LoadData fetches the bin descriptors for identifier.
func (d *Distribution) LoadData(identifier string) error {
	if d.Initialized() {
		return fmt.Errorf("%w: distribution already initialized", ErrDataLoad)
	}
	if d.source == nil {
		return fmt.Errorf("%w: no data source configured", ErrDataLoad)
	}
	data, err := d.source.Load(identifier)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("%w: source returned no data for %q", ErrDataLoad, identifier)
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDataLoad, identifier, err)
	}
	if data.EnergyInterpolation == "" {
		data.EnergyInterpolation = InterpolationUniform
	}
	d.data = data
	return nil
}

// Initialize builds the three cumulative tables. Calling it again after a
// successful call does nothing.
func (d *Distribution) Initialize() error {
	if d.Initialized() {
		return nil
	}
	if d.data == nil {
		return fmt.Errorf("%w: no data loaded", ErrNotInitialized)
	}
	if d.rng == nil {
		return fmt.Errorf("%w: no uniform source", ErrNotInitialized)
	}

	spatial, err := sampler.Build(spatialWeights(d.data.Spatial))
	if err != nil {
		return fmt.Errorf("spatial marginal: %w", err)
	}
	energy, err := sampler.Build(energyWeights(d.data.Energy))
	if err != nil {
		return fmt.Errorf("energy marginal: %w", err)
	}
	direction, err := sampler.Build(directionWeights(d.data.Direction))
	if err != nil {
		return fmt.Errorf("direction marginal: %w", err)
	}

	d.spatial, d.energy, d.direction = spatial, energy, direction
	return nil
}

// Initialized reports whether the cumulative tables are built.
func (d *Distribution) Initialized() bool {
	return d.direction != nil
}

// SamplePosition draws a local-frame point uniformly inside a voxel chosen
// by weight.
func (d *Distribution) SamplePosition() (r3.Vec, error) {
	if !d.Initialized() {
		return r3.Vec{}, ErrNotInitialized
	}
	b := d.data.Spatial[d.spatial.Draw(d.rng.Float64())].Box
	size := b.Size()
	return r3.Vec{
		X: b.Min.X + d.rng.Float64()*size.X,
		Y: b.Min.Y + d.rng.Float64()*size.Y,
		Z: b.Min.Z + d.rng.Float64()*size.Z,
	}, nil
}

// SampleEnergy draws an energy in MeV.
func (d *Distribution) SampleEnergy() (float64, error) {
	if !d.Initialized() {
		return 0, ErrNotInitialized
	}
	b := d.data.Energy[d.energy.Draw(d.rng.Float64())]
	u := d.rng.Float64()
	if d.data.EnergyInterpolation == InterpolationCenter {
		return 0.5 * (b.Low + b.High), nil
	}
	return b.Low + u*(b.High-b.Low), nil
}

// SampleDirection draws a local-frame unit vector, uniform in solid angle
// inside the chosen patch.
func (d *Distribution) SampleDirection() (r3.Vec, error) {
	if !d.Initialized() {
		return r3.Vec{}, ErrNotInitialized
	}
	b := d.data.Direction[d.direction.Draw(d.rng.Float64())]
	cosTheta := b.CosThetaMin + d.rng.Float64()*(b.CosThetaMax-b.CosThetaMin)
	phi := b.PhiMin + d.rng.Float64()*(b.PhiMax-b.PhiMin)
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	sinPhi, cosPhi := math.Sincos(phi)
	return r3.Vec{X: sinTheta * cosPhi, Y: sinTheta * sinPhi, Z: cosTheta}, nil
}

// TotalYield returns the raw spatial weight sum, i.e. the emission yield the
// data was recorded with. Zero before Initialize.
func (d *Distribution) TotalYield() float64 {
	if !d.Initialized() {
		return 0
	}
	return d.spatial.Total()
}

// Summary reports bin counts and ranges of the loaded data.
func (d *Distribution) Summary() Summary {
	s := Summary{Initialized: d.Initialized(), TotalYield: d.TotalYield()}
	if d.data == nil {
		return s
	}
	s.Name = d.data.Name
	s.SpatialBins = len(d.data.Spatial)
	s.EnergyBins = len(d.data.Energy)
	s.DirectionBins = len(d.data.Direction)
	s.EnergyMin, s.EnergyMax = math.Inf(1), math.Inf(-1)
	for _, b := range d.data.Energy {
		s.EnergyMin = math.Min(s.EnergyMin, b.Low)
		s.EnergyMax = math.Max(s.EnergyMax, b.High)
	}
	// r3.Box.Union skips zero-volume boxes, and point sources are valid here.
	lo, hi := d.data.Spatial[0].Box.Min, d.data.Spatial[0].Box.Max
	for _, b := range d.data.Spatial[1:] {
		lo = r3.Vec{X: math.Min(lo.X, b.Box.Min.X), Y: math.Min(lo.Y, b.Box.Min.Y), Z: math.Min(lo.Z, b.Box.Min.Z)}
		hi = r3.Vec{X: math.Max(hi.X, b.Box.Max.X), Y: math.Max(hi.Y, b.Box.Max.Y), Z: math.Max(hi.Z, b.Box.Max.Z)}
	}
	s.Bounds = r3.Box{Min: lo, Max: hi}
	return s
}

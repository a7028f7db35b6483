package emission

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// DataSource resolves an identifier to raw bin descriptors.
type DataSource interface {
	Load(identifier string) (*Data, error)
}

// FileSource reads YAML distribution files. Relative identifiers are
// resolved against Dir when it is set.
type FileSource struct {
	Dir string
}

// Load implements DataSource.
func (s FileSource) Load(identifier string) (*Data, error) {
	if identifier == "" {
		return nil, fmt.Errorf("%w: empty source path", ErrDataLoad)
	}
	path := identifier
	if s.Dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.Dir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrDataLoad, path, err)
	}
	data, err := ParseData(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// MemorySource serves descriptors registered in-process.
type MemorySource struct {
	mu   sync.RWMutex
	data map[string]*Data
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{data: make(map[string]*Data)}
}

// Put registers d under identifier; later loads receive a copy.
func (s *MemorySource) Put(identifier string, d *Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[identifier] = d.Clone()
}

// Load implements DataSource.
func (s *MemorySource) Load(identifier string) (*Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: no data registered as %q", ErrDataLoad, identifier)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDataLoad, identifier, err)
	}
	return d.Clone(), nil
}

type fileFormat struct {
	Name      string            `yaml:"name"`
	Spatial   *spatialSection   `yaml:"spatial"`
	Energy    *energySection    `yaml:"energy"`
	Direction *directionSection `yaml:"direction"`
}

type spatialSection struct {
	Grid    *gridSpec   `yaml:"grid,omitempty"`
	Weights []float64   `yaml:"weights,omitempty"`
	Voxels  []voxelSpec `yaml:"voxels,omitempty"`
}

// gridSpec is a regular voxel image. Origin is the lower corner of the first
// voxel and weights run x fastest, then y, then z.
type gridSpec struct {
	Origin  []float64 `yaml:"origin"`
	Spacing []float64 `yaml:"spacing"`
	Size    []int     `yaml:"size"`
}

type voxelSpec struct {
	Min    []float64 `yaml:"min"`
	Max    []float64 `yaml:"max"`
	Weight float64   `yaml:"weight"`
}

type energySection struct {
	Edges         []float64 `yaml:"edges"`
	Weights       []float64 `yaml:"weights"`
	Interpolation string    `yaml:"interpolation,omitempty"`
}

type directionSection struct {
	Isotropic bool            `yaml:"isotropic,omitempty"`
	Bins      []directionSpec `yaml:"bins,omitempty"`
}

type directionSpec struct {
	CosTheta []float64 `yaml:"cos_theta"`
	PhiDeg   []float64 `yaml:"phi_deg"`
	Weight   float64   `yaml:"weight"`
}

// ParseData decodes and validates the YAML distribution format.
func ParseData(raw []byte) (*Data, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %w", ErrDataLoad, err)
	}

	d := &Data{Name: f.Name}
	var err error
	if d.Spatial, err = f.Spatial.bins(); err != nil {
		return nil, fmt.Errorf("%w: spatial: %w", ErrDataLoad, err)
	}
	if d.Energy, d.EnergyInterpolation, err = f.Energy.bins(); err != nil {
		return nil, fmt.Errorf("%w: energy: %w", ErrDataLoad, err)
	}
	if d.Direction, err = f.Direction.bins(); err != nil {
		return nil, fmt.Errorf("%w: direction: %w", ErrDataLoad, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataLoad, err)
	}
	return d, nil
}

func (s *spatialSection) bins() ([]SpatialBin, error) {
	if s == nil {
		return nil, fmt.Errorf("section missing")
	}
	if s.Grid != nil && len(s.Voxels) > 0 {
		return nil, fmt.Errorf("grid and voxels are mutually exclusive")
	}
	if s.Grid == nil {
		out := make([]SpatialBin, 0, len(s.Voxels))
		for i, v := range s.Voxels {
			lo, err := vec3(v.Min)
			if err != nil {
				return nil, fmt.Errorf("voxel %d min: %w", i, err)
			}
			hi, err := vec3(v.Max)
			if err != nil {
				return nil, fmt.Errorf("voxel %d max: %w", i, err)
			}
			out = append(out, SpatialBin{Box: r3.Box{Min: lo, Max: hi}, Weight: v.Weight})
		}
		return out, nil
	}

	g := s.Grid
	origin, err := vec3(g.Origin)
	if err != nil {
		return nil, fmt.Errorf("grid origin: %w", err)
	}
	spacing, err := vec3(g.Spacing)
	if err != nil {
		return nil, fmt.Errorf("grid spacing: %w", err)
	}
	if spacing.X < 0 || spacing.Y < 0 || spacing.Z < 0 {
		return nil, fmt.Errorf("grid spacing must not be negative")
	}
	if len(g.Size) != 3 || g.Size[0] <= 0 || g.Size[1] <= 0 || g.Size[2] <= 0 {
		return nil, fmt.Errorf("grid size must be three positive integers, got %v", g.Size)
	}
	// The running product is bounded by the weight count, so it cannot overflow.
	voxels := 1
	for _, n := range g.Size {
		if n > len(s.Weights)/voxels {
			return nil, fmt.Errorf("grid size %v does not match %d weights", g.Size, len(s.Weights))
		}
		voxels *= n
	}
	if voxels != len(s.Weights) {
		return nil, fmt.Errorf("grid has %d voxels but %d weights", voxels, len(s.Weights))
	}
	nx, ny, nz := g.Size[0], g.Size[1], g.Size[2]

	out := make([]SpatialBin, 0, len(s.Weights))
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				lo := r3.Vec{
					X: origin.X + float64(i)*spacing.X,
					Y: origin.Y + float64(j)*spacing.Y,
					Z: origin.Z + float64(k)*spacing.Z,
				}
				out = append(out, SpatialBin{
					Box:    r3.Box{Min: lo, Max: r3.Add(lo, spacing)},
					Weight: s.Weights[i+nx*(j+ny*k)],
				})
			}
		}
	}
	return out, nil
}

func (s *energySection) bins() ([]EnergyBin, Interpolation, error) {
	if s == nil {
		return nil, "", fmt.Errorf("section missing")
	}
	if len(s.Edges) < 2 {
		return nil, "", fmt.Errorf("need at least two edges, got %d", len(s.Edges))
	}
	if len(s.Weights) != len(s.Edges)-1 {
		return nil, "", fmt.Errorf("%d edges need %d weights, got %d", len(s.Edges), len(s.Edges)-1, len(s.Weights))
	}
	out := make([]EnergyBin, len(s.Weights))
	for i, w := range s.Weights {
		if !(s.Edges[i+1] > s.Edges[i]) {
			return nil, "", fmt.Errorf("edges must be strictly increasing at %d", i+1)
		}
		out[i] = EnergyBin{Low: s.Edges[i], High: s.Edges[i+1], Weight: w}
	}
	interp := Interpolation(s.Interpolation)
	if interp == "" {
		interp = InterpolationUniform
	}
	return out, interp, nil
}

func (s *directionSection) bins() ([]DirectionBin, error) {
	if s == nil {
		return nil, fmt.Errorf("section missing")
	}
	if s.Isotropic {
		if len(s.Bins) > 0 {
			return nil, fmt.Errorf("isotropic and bins are mutually exclusive")
		}
		return []DirectionBin{Isotropic()}, nil
	}
	out := make([]DirectionBin, 0, len(s.Bins))
	for i, b := range s.Bins {
		if len(b.CosTheta) != 2 || len(b.PhiDeg) != 2 {
			return nil, fmt.Errorf("bin %d: cos_theta and phi_deg need two values each", i)
		}
		out = append(out, DirectionBin{
			CosThetaMin: b.CosTheta[0],
			CosThetaMax: b.CosTheta[1],
			PhiMin:      b.PhiDeg[0] * math.Pi / 180,
			PhiMax:      b.PhiDeg[1] * math.Pi / 180,
			Weight:      b.Weight,
		})
	}
	return out, nil
}

func vec3(v []float64) (r3.Vec, error) {
	if len(v) != 3 {
		return r3.Vec{}, fmt.Errorf("want 3 components, got %d", len(v))
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

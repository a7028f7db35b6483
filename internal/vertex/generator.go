// Package vertex turns emission samples into primary kinematic records.
//
// A Generator starts Uninitialized and moves to Ready the first time it is
// asked for a vertex (or when Init is called), loading and initialising its
// emission model exactly once. A failed initialisation is permanent.
package vertex

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GoSim-25-26J-441/vertex-source/internal/frame"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/logger"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/utils"
)

var (
	// ErrInvalidSample is returned when a draw cannot be turned into a
	// momentum, which means the distribution data is corrupt.
	ErrInvalidSample = errors.New("vertex: invalid sample")
	// ErrUnknownParticle is returned for a particle name with no known mass.
	ErrUnknownParticle = errors.New("vertex: unknown particle")
	// ErrInvalidParticle is returned for a negative or non-finite mass.
	ErrInvalidParticle = errors.New("vertex: invalid particle")
)

// Model is the emission model a Generator draws from.
type Model interface {
	LoadData(identifier string) error
	Initialize() error
	SamplePosition() (r3.Vec, error)
	SampleEnergy() (float64, error)
	SampleDirection() (r3.Vec, error)
	TotalYield() float64
}

// EventSink receives generated primaries.
type EventSink interface {
	AddPrimary(rec models.KinematicRecord) error
}

// State is the generator lifecycle state.
type State int32

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Options configures a Generator. Zero values select an identity placement,
// unit weight and a massless particle.
type Options struct {
	// Source is the identifier handed to Model.LoadData.
	Source    string
	Particle  Particle
	Placement frame.Provider
	Weight    WeightPolicy
	Logger    *slog.Logger
}

// Generator produces kinematic records from an emission model. It is not safe
// for concurrent GenerateVertex calls; Init may be called from any goroutine.
type Generator struct {
	model     Model
	source    string
	particle  Particle
	placement frame.Provider
	weight    WeightPolicy
	log       *slog.Logger

	once    sync.Once
	initErr error
	state   atomic.Int32
}

// New returns an Uninitialized generator.
func New(model Model, opts Options) *Generator {
	g := &Generator{
		model:     model,
		source:    opts.Source,
		particle:  opts.Particle,
		placement: opts.Placement,
		weight:    opts.Weight,
		log:       opts.Logger,
	}
	if g.placement == nil {
		g.placement = frame.Static(frame.Identity())
	}
	if g.weight == nil {
		g.weight = DefaultWeight()
	}
	if g.log == nil {
		g.log = logger.Component("vertex")
	}
	return g
}

// Open returns a Ready generator, or the initialisation error.
func Open(model Model, opts Options) (*Generator, error) {
	g := New(model, opts)
	if err := g.Init(); err != nil {
		return nil, err
	}
	return g, nil
}

// Init loads and initialises the model once. Later calls return the outcome
// of the first one.
func (g *Generator) Init() error {
	g.once.Do(func() {
		if g.model == nil {
			g.initErr = errors.New("vertex: no emission model")
			return
		}
		if err := g.model.LoadData(g.source); err != nil {
			g.initErr = fmt.Errorf("load %q: %w", g.source, err)
			g.log.Error("emission data load failed", "source", g.source, "error", err)
			return
		}
		if err := g.model.Initialize(); err != nil {
			g.initErr = fmt.Errorf("initialize %q: %w", g.source, err)
			g.log.Error("emission model initialization failed", "source", g.source, "error", err)
			return
		}
		g.state.Store(int32(Ready))
		g.log.Info("vertex generator ready",
			"source", g.source,
			"particle", g.particle.Name,
			"mass_mev", g.particle.Mass,
			"weight_policy", g.weight.Name(),
			"total_yield", g.model.TotalYield())
	})
	return g.initErr
}

// State reports the lifecycle state.
func (g *Generator) State() State {
	return State(g.state.Load())
}

// Particle returns the emitted species.
func (g *Generator) Particle() Particle {
	return g.particle
}

// GenerateVertex draws one primary emitted at time t (ns).
func (g *Generator) GenerateVertex(t float64) (models.KinematicRecord, error) {
	if err := g.Init(); err != nil {
		return models.KinematicRecord{}, err
	}
	pl := g.placement.Placement(t)

	local, err := g.model.SamplePosition()
	if err != nil {
		return models.KinematicRecord{}, fmt.Errorf("sample position: %w", err)
	}
	energy, err := g.model.SampleEnergy()
	if err != nil {
		return models.KinematicRecord{}, fmt.Errorf("sample energy: %w", err)
	}
	dir, err := g.model.SampleDirection()
	if err != nil {
		return models.KinematicRecord{}, fmt.Errorf("sample direction: %w", err)
	}
	if !utils.IsFinite(energy) {
		return models.KinematicRecord{}, fmt.Errorf("%w: energy %g", ErrInvalidSample, energy)
	}

	momentum, err := Momentum(energy, g.particle.Mass, frame.ToGlobalDirection(dir, pl))
	if err != nil {
		return models.KinematicRecord{}, err
	}
	return models.KinematicRecord{
		Particle: g.particle.Name,
		Position: frame.ToGlobal(local, pl),
		Momentum: momentum,
		Energy:   energy,
		Weight:   g.weight.Weight(g.model),
		Time:     t,
	}, nil
}

// GeneratePrimaries generates one vertex at time t and adds it to sink. It
// returns the number of primaries added.
func (g *Generator) GeneratePrimaries(t float64, sink EventSink) (int, error) {
	rec, err := g.GenerateVertex(t)
	if err != nil {
		return 0, err
	}
	if err := sink.AddPrimary(rec); err != nil {
		return 0, fmt.Errorf("add primary: %w", err)
	}
	g.log.Debug("primary vertex",
		"particle", rec.Particle,
		"x_mm", rec.Position.X, "y_mm", rec.Position.Y, "z_mm", rec.Position.Z,
		"energy_mev", rec.Energy,
		"p_mev", rec.MomentumMagnitude(),
		"time_ns", rec.Time)
	return 1, nil
}

// Momentum returns the momentum vector of a particle with total energy and
// rest mass (MeV) travelling along direction, which need not be normalised.
// Energies at or below the rest mass give a zero momentum.
func Momentum(energy, mass float64, direction r3.Vec) (r3.Vec, error) {
	d := r3.Norm(direction)
	if d == 0 || !utils.IsFinite(d) {
		return r3.Vec{}, fmt.Errorf("%w: direction %v has norm %g", ErrInvalidSample, direction, d)
	}
	p := math.Sqrt(math.Max(energy*energy-mass*mass, 0))
	return r3.Scale(p/d, direction), nil
}

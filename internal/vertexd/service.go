// Package vertexd serves a vertex generator over HTTP and gRPC.
package vertexd

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/vertex-source/internal/emission"
	"github.com/GoSim-25-26J-441/vertex-source/internal/vertex"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/config"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/logger"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/utils"
)

// MaxBatch caps the vertices produced by one request
const MaxBatch = 100000

var (
	// ErrInvalidRequest reports a malformed generate request
	ErrInvalidRequest = errors.New("vertexd: invalid request")
	// ErrNotReady is returned while the generator is not initialised
	ErrNotReady = errors.New("vertexd: generator not ready")
	// ErrRateLimited is returned when a client exceeds its request rate
	ErrRateLimited = errors.New("vertexd: rate limit exceeded")
	// ErrSourceFailed is returned after an invalid sample has taken the
	// source out of service
	ErrSourceFailed = errors.New("vertexd: source failed")
)

// Describer reports the loaded emission distribution
type Describer interface {
	Summary() emission.Summary
}

// Description is the public view of the served source
type Description struct {
	Source    emission.Summary `json:"source"`
	Particle  string           `json:"particle"`
	MassMeV   float64          `json:"mass_mev"`
	Weight    string           `json:"weight_policy"`
	State     string           `json:"state"`
	Error     string           `json:"error,omitempty"`
	Generated int64            `json:"vertices_generated"`
}

// Service owns one generator. Calls are serialised because the generator
// and its random stream are not safe for concurrent sampling.
type Service struct {
	mu        sync.Mutex
	gen       *vertex.Generator
	dist      Describer
	weight    string
	generated int64
	limiter   *rateLimiter
	failed    error
	log       *slog.Logger
}

// NewService wraps an opened generator and the distribution it samples
func NewService(gen *vertex.Generator, dist Describer, weight string) *Service {
	return &Service{
		gen:    gen,
		dist:   dist,
		weight: weight,
		log:    logger.Component("vertexd"),
	}
}

// Open builds the file-backed distribution and generator described by cfg
// and initialises it, so a bad source fails before anything is served.
func Open(cfg *config.Config) (*Service, error) {
	dist := emission.New(emission.FileSource{}, utils.NewRandSource(cfg.Seed))
	opts, err := vertex.OptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("generator options: %w", err)
	}
	gen, err := vertex.Open(dist, opts)
	if err != nil {
		return nil, err
	}
	weight := vertex.DefaultWeight().Name()
	if opts.Weight != nil {
		weight = opts.Weight.Name()
	}
	svc := NewService(gen, dist, weight)
	svc.SetRateLimit(cfg.Server.RateLimitRPS)
	return svc, nil
}

// SetRateLimit caps generate requests per client per second; 0 disables
func (s *Service) SetRateLimit(perSecond int) {
	s.limiter = newRateLimiter(perSecond)
}

// Admit charges one generate request to client
func (s *Service) Admit(client string) error {
	if !s.limiter.allow(client, time.Now()) {
		return fmt.Errorf("%w: client %s", ErrRateLimited, client)
	}
	return nil
}

// Generate produces n vertices, all stamped with time t (ns)
func (s *Service) Generate(n int, t float64) ([]models.KinematicRecord, error) {
	out := make([]models.KinematicRecord, 0, max(0, min(n, MaxBatch)))
	err := s.Stream(n, t, func(rec models.KinematicRecord) error {
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stream produces n vertices and hands each to fn in order. The generator
// stays locked for the whole batch so streams never interleave.
func (s *Service) Stream(n int, t float64, fn func(models.KinematicRecord) error) error {
	if n <= 0 || n > MaxBatch {
		return fmt.Errorf("%w: count must be in [1, %d], got %d", ErrInvalidRequest, MaxBatch, n)
	}
	if !utils.IsFinite(t) || t < 0 {
		return fmt.Errorf("%w: time_ns must be finite and non-negative", ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed != nil {
		return fmt.Errorf("%w: %w", ErrSourceFailed, s.failed)
	}
	if s.gen.State() != vertex.Ready {
		return ErrNotReady
	}
	for i := 0; i < n; i++ {
		rec, err := s.gen.GenerateVertex(t)
		if err != nil {
			err = fmt.Errorf("vertex %d: %w", i, err)
			// The tables can no longer be trusted for any later draw.
			if errors.Is(err, vertex.ErrInvalidSample) {
				s.failed = err
				s.log.Error("source failed, refusing further requests", "error", err)
				return fmt.Errorf("%w: %w", ErrSourceFailed, err)
			}
			return err
		}
		s.generated++
		if err := fn(rec); err != nil {
			return err
		}
	}
	s.log.Debug("batch generated", "count", n, "time_ns", t)
	return nil
}

// Err returns the failure that took the source out of service, if any
func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Describe returns the source summary and generator status
func (s *Service) Describe() Description {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.gen.Particle()
	d := Description{
		Particle:  p.Name,
		MassMeV:   p.Mass,
		Weight:    s.weight,
		State:     s.gen.State().String(),
		Generated: s.generated,
	}
	if s.failed != nil {
		d.State = "failed"
		d.Error = s.failed.Error()
	}
	if s.dist != nil {
		d.Source = s.dist.Summary()
	}
	return d
}

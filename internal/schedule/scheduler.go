// Package schedule places emission events on the engine's time axis.
package schedule

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/GoSim-25-26J-441/vertex-source/internal/engine"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/config"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/utils"
)

// ClockStream is the DeriveSeed stream the scheduler draws from, keeping
// emission times independent of the vertex sampling stream.
const ClockStream uint64 = 1

// Scheduler generates emission times according to a clock policy
type Scheduler struct {
	rng *utils.RandSource
}

// NewScheduler creates a scheduler on the clock stream of the run seed
func NewScheduler(runSeed uint64) *Scheduler {
	return &Scheduler{
		rng: utils.NewRandSource(utils.DeriveSeed(runSeed, ClockStream)),
	}
}

// Times returns n emission times in ns, in non-decreasing order.
func (s *Scheduler) Times(clock config.Clock, n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("event count must not be negative, got %d", n)
	}
	switch clock.Type {
	case "", "constant":
		return s.constantTimes(clock.StartNs, n), nil
	case "periodic":
		return s.periodicTimes(clock.StartNs, clock.IntervalNs, n)
	case "uniform":
		return s.uniformTimes(clock.StartNs, clock.WindowNs, n)
	case "poisson":
		return s.poissonTimes(clock.StartNs, clock.ActivityBq, n)
	default:
		return nil, fmt.Errorf("unknown clock type %q", clock.Type)
	}
}

// ScheduleEmissions schedules n emission events on eng
func (s *Scheduler) ScheduleEmissions(eng *engine.Engine, clock config.Clock, n int) error {
	times, err := s.Times(clock, n)
	if err != nil {
		return err
	}
	for _, t := range times {
		eng.ScheduleAt(engine.EventTypeEmission, t)
	}
	return nil
}

func (s *Scheduler) constantTimes(start float64, n int) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = start
	}
	return times
}

func (s *Scheduler) periodicTimes(start, interval float64, n int) ([]float64, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %g", interval)
	}
	times := make([]float64, n)
	for i := range times {
		times[i] = start + float64(i)*interval
	}
	return times, nil
}

// uniformTimes draws order statistics of n uniform times in the window by
// accumulating exponential spacings, so the output is sorted without a sort.
func (s *Scheduler) uniformTimes(start, window float64, n int) ([]float64, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %g", window)
	}
	if n == 0 {
		return nil, nil
	}
	spacings := make([]float64, n+1)
	total := 0.0
	for i := range spacings {
		spacings[i] = s.rng.ExpFloat64(1)
		total += spacings[i]
	}
	times := make([]float64, n)
	acc := 0.0
	for i := range times {
		acc += spacings[i]
		times[i] = start + window*acc/total
	}
	return times, nil
}

// poissonTimes models radioactive decay: exponential gaps at the source
// activity, converted from Bq to events per ns.
func (s *Scheduler) poissonTimes(start, activityBq float64, n int) ([]float64, error) {
	if activityBq <= 0 {
		return nil, fmt.Errorf("activity must be positive, got %g", activityBq)
	}
	gap := distuv.Exponential{Rate: activityBq * 1e-9, Src: s.rng.Source()}
	times := make([]float64, n)
	t := start
	for i := range times {
		t += gap.Rand()
		times[i] = t
	}
	return times, nil
}

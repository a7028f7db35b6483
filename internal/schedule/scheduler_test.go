package schedule

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/GoSim-25-26J-441/vertex-source/internal/engine"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/config"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/logger"
)

func TestNewScheduler(t *testing.T) {
	require.NotNil(t, NewScheduler(12345))
}

func TestConstantTimes(t *testing.T) {
	times, err := NewScheduler(1).Times(config.Clock{Type: "constant", StartNs: 250}, 4)
	require.NoError(t, err)
	require.Equal(t, []float64{250, 250, 250, 250}, times)
}

func TestPeriodicTimes(t *testing.T) {
	times, err := NewScheduler(1).Times(config.Clock{Type: "periodic", StartNs: 10, IntervalNs: 5}, 4)
	require.NoError(t, err)
	require.Equal(t, []float64{10, 15, 20, 25}, times)
}

func TestUniformTimesStayInWindowAndSorted(t *testing.T) {
	clock := config.Clock{Type: "uniform", StartNs: 1000, WindowNs: 500}
	times, err := NewScheduler(3).Times(clock, 2000)
	require.NoError(t, err)
	require.Len(t, times, 2000)
	require.True(t, sort.Float64sAreSorted(times))
	require.GreaterOrEqual(t, times[0], 1000.0)
	require.Less(t, times[len(times)-1], 1500.0)
	require.InDelta(t, 1250, stat.Mean(times, nil), 15)
}

func TestPoissonTimesMeanGap(t *testing.T) {
	// 1 MBq is one decay per microsecond on average.
	clock := config.Clock{Type: "poisson", ActivityBq: 1e6}
	const n = 20000
	times, err := NewScheduler(5).Times(clock, n)
	require.NoError(t, err)
	require.True(t, sort.Float64sAreSorted(times))
	// Standard error of the mean gap is 1000/sqrt(n), about 7 ns.
	require.InDelta(t, 1000, times[n-1]/n, 40)
}

func TestTimesDeterministicForSeed(t *testing.T) {
	clock := config.Clock{Type: "poisson", ActivityBq: 3.7e4}
	a, err := NewScheduler(42).Times(clock, 50)
	require.NoError(t, err)
	b, err := NewScheduler(42).Times(clock, 50)
	require.NoError(t, err)
	c, err := NewScheduler(43).Times(clock, 50)
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.NotEqual(t, a[0], c[0])
}

func TestTimesErrors(t *testing.T) {
	s := NewScheduler(1)
	clocks := []config.Clock{
		{Type: "periodic"},
		{Type: "uniform"},
		{Type: "poisson"},
		{Type: "burst"},
	}
	for _, clock := range clocks {
		_, err := s.Times(clock, 3)
		require.Error(t, err, "clock %+v", clock)
	}
	_, err := s.Times(config.Clock{}, -1)
	require.Error(t, err)
}

func TestScheduleEmissions(t *testing.T) {
	eng := engine.NewEngine("test-run")
	eng.SetLogger(logger.Discard())

	clock := config.Clock{Type: "periodic", IntervalNs: 100}
	require.NoError(t, NewScheduler(1).ScheduleEmissions(eng, clock, 5))
	require.Equal(t, 5, eng.GetEventQueue().Size())

	// No handler registered: the run drains the queue without failing.
	require.NoError(t, eng.Run(context.Background()))
	require.Equal(t, 400.0, eng.GetSimTime())
}

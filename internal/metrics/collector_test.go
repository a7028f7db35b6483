package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	require.NotNil(t, c)
	require.Equal(t, DefaultReservoirSize, c.reservoirSize)
	require.Equal(t, DefaultRecentPoints, c.recentSize)
}

func TestCollectorRecordAndGetTimeSeries(t *testing.T) {
	c := NewCollector()
	c.Start()

	now := time.Now()
	c.Record("test_metric", 10.0, now, nil)
	c.Record("test_metric", 20.0, now.Add(time.Second), nil)
	c.Record("test_metric", 30.0, now.Add(2*time.Second), nil)

	points := c.GetTimeSeries("test_metric", nil)
	require.Len(t, points, 3)
	for i, want := range []float64{10, 20, 30} {
		require.Equal(t, want, points[i].Value)
		require.Equal(t, "test_metric", points[i].Name)
	}
}

func TestCollectorRecordWithLabels(t *testing.T) {
	c := NewCollector()
	c.Start()

	labels := map[string]string{
		"particle": "gamma",
		"source":   "cs137",
	}
	c.Record("energy", 0.662, time.Now(), labels)

	points := c.GetTimeSeries("energy", labels)
	require.Len(t, points, 1)
	require.Equal(t, "gamma", points[0].Labels["particle"])

	// Label order must not matter
	reordered := map[string]string{"source": "cs137", "particle": "gamma"}
	require.Len(t, c.GetTimeSeries("energy", reordered), 1)
	require.Nil(t, c.GetTimeSeries("energy", nil))
}

func TestCollectorGetAggregation(t *testing.T) {
	c := NewCollector()
	c.Start()

	now := time.Now()
	for i, v := range []float64{50.0, 10.0, 40.0, 20.0, 30.0} {
		c.Record("test_metric", v, now.Add(time.Duration(i)*time.Second), nil)
	}

	agg := c.GetAggregation("test_metric", nil)
	require.NotNil(t, agg)
	require.EqualValues(t, 5, agg.Count)
	require.Equal(t, 150.0, agg.Sum)
	require.Equal(t, 10.0, agg.Min)
	require.Equal(t, 50.0, agg.Max)
	require.Equal(t, 30.0, agg.Mean)

	// The stored series keeps insertion order
	require.Equal(t, 50.0, c.GetTimeSeries("test_metric", nil)[0].Value)
}

func TestCollectorPercentiles(t *testing.T) {
	c := NewCollector()
	c.Start()

	now := time.Now()
	for i := 0; i < 100; i++ {
		c.Record("test_metric", float64(i+1), now, nil)
	}

	agg := c.GetAggregation("test_metric", nil)
	require.NotNil(t, agg)
	require.InDelta(t, 50.5, agg.P50, 0.5)
	require.InDelta(t, 95.5, agg.P95, 0.5)
	require.InDelta(t, 99.5, agg.P99, 0.5)
}

func TestCollectorMemoryStaysBounded(t *testing.T) {
	c := NewCollectorWithLimits(256, 16)
	c.Start()

	const n = 100000
	now := time.Now()
	for i := 0; i < n; i++ {
		c.Record("energy", float64(i), now.Add(time.Duration(i)), CreateParticleLabels("gamma"))
	}

	// Exact moments survive the bounded storage.
	agg := c.GetTotalAggregation("energy")
	require.EqualValues(t, n, agg.Count)
	require.Equal(t, float64(n)*float64(n-1)/2, agg.Sum)
	require.Equal(t, 0.0, agg.Min)
	require.Equal(t, float64(n-1), agg.Max)
	require.Equal(t, n, c.Count("energy"))

	for _, s := range []*series{c.totals["energy"], c.series["energy"][labelKey(CreateParticleLabels("gamma"))]} {
		require.Len(t, s.reservoir, 256)
		require.Len(t, s.recent, 16)
	}

	// A uniform reservoir over 0..n-1 puts the median near n/2.
	require.InDelta(t, float64(n)/2, agg.P50, float64(n)*0.1)
	require.Greater(t, agg.P99, agg.P95)

	require.Len(t, c.GetSummary().Metrics["energy"], 256)
}

func TestCollectorTimeSeriesKeepsMostRecent(t *testing.T) {
	c := NewCollectorWithLimits(8, 4)
	c.Start()

	now := time.Now()
	for i := 0; i < 10; i++ {
		c.Record("weight", float64(i), now.Add(time.Duration(i)*time.Second), nil)
	}

	points := c.GetTimeSeries("weight", nil)
	require.Len(t, points, 4)
	for i, p := range points {
		require.Equal(t, float64(6+i), p.Value)
	}
}

func TestCollectorTotalAggregationAcrossLabels(t *testing.T) {
	c := NewCollector()
	c.Start()

	now := time.Now()
	c.Record("energy", 1.0, now, CreateParticleLabels("gamma"))
	c.Record("energy", 2.0, now, CreateParticleLabels("e-"))
	c.Record("energy", 3.0, now, nil)

	require.EqualValues(t, 1, c.GetAggregation("energy", CreateParticleLabels("gamma")).Count)

	total := c.GetTotalAggregation("energy")
	require.NotNil(t, total)
	require.EqualValues(t, 3, total.Count)
	require.Equal(t, 6.0, total.Sum)
	require.Equal(t, 3, c.Count("energy"))
	require.Nil(t, c.GetTotalAggregation("missing"))
	require.Equal(t, 0, c.Count("missing"))
}

func TestCollectorGetSummary(t *testing.T) {
	c := NewCollector()
	c.Start()

	now := time.Now()
	c.Record("metric1", 10.0, now, nil)
	c.Record("metric1", 20.0, now, CreateParticleLabels("gamma"))
	c.Record("metric2", 30.0, now, nil)

	time.Sleep(10 * time.Millisecond)
	c.Stop()

	summary := c.GetSummary()
	require.NotNil(t, summary)
	require.Len(t, summary.Metrics["metric1"], 2)
	require.NotNil(t, summary.Aggregations["metric2"])
	require.Equal(t, 30.0, summary.Aggregations["metric2"].Mean)
	require.Greater(t, summary.Duration, time.Duration(0))
}

func TestCollectorGetMetricNames(t *testing.T) {
	c := NewCollector()
	c.Start()

	now := time.Now()
	c.Record("metric3", 30.0, now, nil)
	c.Record("metric1", 10.0, now, nil)
	c.Record("metric2", 20.0, now, nil)

	require.Equal(t, []string{"metric1", "metric2", "metric3"}, c.GetMetricNames())
}

func TestCollectorGetLabelsForMetric(t *testing.T) {
	c := NewCollector()
	c.Start()

	now := time.Now()
	c.Record("metric1", 10.0, now, CreateParticleLabels("gamma"))
	c.Record("metric1", 20.0, now, CreateParticleLabels("e-"))
	c.Record("metric1", 30.0, now, nil)

	require.Len(t, c.GetLabelsForMetric("metric1"), 3)
	require.Nil(t, c.GetLabelsForMetric("missing"))
}

func TestCollectorClear(t *testing.T) {
	c := NewCollector()
	c.Start()

	now := time.Now()
	c.Record("metric1", 10.0, now, nil)
	c.Record("metric2", 20.0, now, nil)

	c.Clear()

	require.Empty(t, c.GetMetricNames())
	require.Equal(t, 0, c.Count("metric1"))
}

func TestCollectorEmptyAggregation(t *testing.T) {
	c := NewCollector()
	c.Start()

	require.Nil(t, c.GetAggregation("nonexistent", nil))
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector()
	c.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record("energy", 1.0, time.Now(), nil)
				_ = c.GetTotalAggregation("energy")
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 800, c.Count("energy"))
}

func TestRecordVertex(t *testing.T) {
	c := NewCollector()
	c.Start()

	rec := models.KinematicRecord{
		Particle: "gamma",
		Position: r3.Vec{X: 1, Y: 2, Z: 3},
		Momentum: r3.Vec{X: 3, Y: 4},
		Energy:   5,
		Weight:   0.5,
		Time:     1500,
	}
	RecordVertex(c, rec, CreateParticleLabels(rec.Particle))

	want := map[string]float64{
		MetricEnergy:    5,
		MetricMomentum:  5,
		MetricWeight:    0.5,
		MetricPositionX: 1,
		MetricPositionY: 2,
		MetricPositionZ: 3,
	}
	for name, v := range want {
		points := c.GetTimeSeries(name, CreateParticleLabels("gamma"))
		require.Len(t, points, 1, name)
		require.Equal(t, v, points[0].Value, name)
		require.EqualValues(t, 1500, points[0].Timestamp.UnixNano(), name)
	}

	require.Nil(t, CreateParticleLabels(""))
}

func TestConvertToRunMetrics(t *testing.T) {
	c := NewCollector()
	c.Start()

	for i, e := range []float64{1, 2, 3, 4} {
		RecordVertex(c, models.KinematicRecord{
			Particle: "gamma",
			Momentum: r3.Vec{Z: e},
			Energy:   e,
			Weight:   2,
			Time:     float64(i),
		}, CreateParticleLabels("gamma"))
	}

	time.Sleep(10 * time.Millisecond)
	c.Stop()

	runMetrics := ConvertToRunMetrics(c)
	require.NotNil(t, runMetrics)
	require.EqualValues(t, 4, runMetrics.VerticesGenerated)
	require.Equal(t, 8.0, runMetrics.TotalWeight)
	require.NotNil(t, runMetrics.Energy)
	require.Equal(t, 2.5, runMetrics.Energy.Mean)
	require.Equal(t, 4.0, runMetrics.Momentum.Max)
	require.Greater(t, runMetrics.ThroughputVPS, 0.0)
}

func TestConvertToRunMetricsEmpty(t *testing.T) {
	c := NewCollector()
	c.Start()
	c.Stop()

	runMetrics := ConvertToRunMetrics(c)
	require.Zero(t, runMetrics.VerticesGenerated)
	require.Nil(t, runMetrics.Energy)
}

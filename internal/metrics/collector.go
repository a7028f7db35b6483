package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/utils"
)

const (
	// DefaultReservoirSize bounds the values kept per series for percentiles
	DefaultReservoirSize = 4096
	// DefaultRecentPoints bounds the time-series points kept per series
	DefaultRecentPoints = 1024
)

// Collector aggregates per-vertex samples during a generation run. Count,
// sum, min and max are exact; percentiles come from a fixed-size uniform
// reservoir, so memory stays bounded however many vertices are recorded.
type Collector struct {
	mu sync.RWMutex

	startTime time.Time
	endTime   time.Time

	reservoirSize int
	recentSize    int
	rng           *utils.RandSource

	// metric name -> label key -> series
	series map[string]map[string]*series
	// metric name -> series across every label set
	totals map[string]*series
}

type series struct {
	labels map[string]string

	count int64
	sum   float64
	min   float64
	max   float64

	reservoir []float64

	// ring buffer of the most recent points; next is the slot written next
	recent []recentPoint
	next   int
}

type recentPoint struct {
	timestamp time.Time
	value     float64
}

// NewCollector creates a collector with the default bounds
func NewCollector() *Collector {
	return NewCollectorWithLimits(DefaultReservoirSize, DefaultRecentPoints)
}

// NewCollectorWithLimits creates a collector keeping at most reservoirSize
// values for percentiles and recentPoints points per series. Non-positive
// limits fall back to the defaults.
func NewCollectorWithLimits(reservoirSize, recentPoints int) *Collector {
	if reservoirSize <= 0 {
		reservoirSize = DefaultReservoirSize
	}
	if recentPoints <= 0 {
		recentPoints = DefaultRecentPoints
	}
	return &Collector{
		startTime:     time.Now(),
		reservoirSize: reservoirSize,
		recentSize:    recentPoints,
		rng:           utils.NewRandSource(utils.DefaultSeed),
		series:        make(map[string]map[string]*series),
		totals:        make(map[string]*series),
	}
}

// Start marks the start of metric collection
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
}

// Stop marks the end of metric collection
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}

// Record records a metric value at a specific timestamp
func (c *Collector) Record(name string, value float64, timestamp time.Time, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := labelKey(labels)
	if c.series[name] == nil {
		c.series[name] = make(map[string]*series)
	}
	s := c.series[name][key]
	if s == nil {
		s = &series{labels: copyLabels(labels)}
		c.series[name][key] = s
	}
	total := c.totals[name]
	if total == nil {
		total = &series{}
		c.totals[name] = total
	}

	c.add(s, value, timestamp)
	c.add(total, value, timestamp)
}

// add folds one value into s (caller must hold lock)
func (c *Collector) add(s *series, value float64, timestamp time.Time) {
	s.count++
	s.sum += value
	if s.count == 1 || value < s.min {
		s.min = value
	}
	if s.count == 1 || value > s.max {
		s.max = value
	}

	// Algorithm R: after n values each has probability size/n of being kept.
	if len(s.reservoir) < c.reservoirSize {
		s.reservoir = append(s.reservoir, value)
	} else if j := c.rng.IntN(int(s.count)); j < c.reservoirSize {
		s.reservoir[j] = value
	}

	p := recentPoint{timestamp: timestamp, value: value}
	if len(s.recent) < c.recentSize {
		s.recent = append(s.recent, p)
	} else {
		s.recent[s.next] = p
	}
	s.next = (s.next + 1) % c.recentSize
}

// GetTimeSeries returns the most recent points for a metric, oldest first
func (c *Collector) GetTimeSeries(name string, labels map[string]string) []*models.MetricPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.seriesUnsafe(name, labelKey(labels))
	if s == nil {
		return nil
	}

	ordered := s.recent
	if len(s.recent) == c.recentSize {
		ordered = append(append([]recentPoint{}, s.recent[s.next:]...), s.recent[:s.next]...)
	}
	result := make([]*models.MetricPoint, len(ordered))
	for i, p := range ordered {
		result[i] = &models.MetricPoint{
			Timestamp: p.timestamp,
			Name:      name,
			Value:     p.value,
			Labels:    copyLabels(s.labels),
		}
	}
	return result
}

// GetAggregation calculates aggregated statistics for a metric and label set
func (c *Collector) GetAggregation(name string, labels map[string]string) *models.Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seriesUnsafe(name, labelKey(labels)).aggregation()
}

// GetTotalAggregation aggregates a metric across every label set
func (c *Collector) GetTotalAggregation(name string) *models.Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totals[name].aggregation()
}

// Count returns the number of values recorded for a metric across labels
func (c *Collector) Count(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t := c.totals[name]; t != nil {
		return int(t.count)
	}
	return 0
}

// Duration is the wall time between Start and Stop, or since Start while
// still collecting
func (c *Collector) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.endTime.IsZero() {
		return time.Since(c.startTime)
	}
	return c.endTime.Sub(c.startTime)
}

// GetSummary returns a summary of all collected metrics. Metrics holds the
// reservoir sample of each metric, not every recorded value.
func (c *Collector) GetSummary() *models.MetricsSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := &models.MetricsSummary{
		StartTime:    c.startTime,
		EndTime:      c.endTime,
		Duration:     c.endTime.Sub(c.startTime),
		Metrics:      make(map[string][]float64),
		Aggregations: make(map[string]*models.Aggregation),
	}

	for name, total := range c.totals {
		summary.Metrics[name] = append([]float64(nil), total.reservoir...)
		if agg := total.aggregation(); agg != nil {
			summary.Aggregations[name] = agg
		}
	}

	return summary
}

// GetMetricNames returns all metric names that have been collected
func (c *Collector) GetMetricNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.totals))
	for name := range c.totals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetLabelsForMetric returns all label combinations for a metric
func (c *Collector) GetLabelsForMetric(name string) []map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.series[name] == nil {
		return nil
	}

	labelsList := make([]map[string]string, 0, len(c.series[name]))
	for _, s := range c.series[name] {
		labelsList = append(labelsList, copyLabels(s.labels))
	}
	return labelsList
}

// Clear clears all collected metrics
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.series = make(map[string]map[string]*series)
	c.totals = make(map[string]*series)
	c.startTime = time.Now()
	c.endTime = time.Time{}
}

// seriesUnsafe looks up one series without locking (caller must hold lock)
func (c *Collector) seriesUnsafe(name, key string) *series {
	if c.series[name] == nil {
		return nil
	}
	return c.series[name][key]
}

// labelKey creates a key from labels for map lookup
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte(',')
	}
	return b.String()
}

// copyLabels creates a copy of the labels map
func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// aggregation summarises s; a nil or empty series has none
func (s *series) aggregation() *models.Aggregation {
	if s == nil || s.count == 0 {
		return nil
	}

	return &models.Aggregation{
		Count: s.count,
		Sum:   s.sum,
		Min:   s.min,
		Max:   s.max,
		Mean:  s.sum / float64(s.count),
		P50:   utils.Percentile(s.reservoir, 50),
		P95:   utils.Percentile(s.reservoir, 95),
		P99:   utils.Percentile(s.reservoir, 99),
	}
}

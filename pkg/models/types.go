package models

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// RunStatus represents the status of a generation run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents a generation run
type Run struct {
	ID        string                 `json:"id"`
	Status    RunStatus              `json:"status"`
	Config    map[string]interface{} `json:"config"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time,omitempty"`
	Duration  time.Duration          `json:"duration,omitempty"`
	Metrics   *RunMetrics            `json:"metrics,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// RunMetrics contains aggregated metrics for a generation run
type RunMetrics struct {
	EventsScheduled   int64        `json:"events_scheduled"`
	EventsProcessed   int64        `json:"events_processed"`
	VerticesGenerated int64        `json:"vertices_generated"`
	TotalWeight       float64      `json:"total_weight"`
	ThroughputVPS     float64      `json:"throughput_vps"`
	Energy            *Aggregation `json:"energy_mev,omitempty"`
	Momentum          *Aggregation `json:"momentum_mev,omitempty"`
	Weight            *Aggregation `json:"weight,omitempty"`
	PositionX         *Aggregation `json:"position_x_mm,omitempty"`
	PositionY         *Aggregation `json:"position_y_mm,omitempty"`
	PositionZ         *Aggregation `json:"position_z_mm,omitempty"`
}

// KinematicRecord is one generated primary: global position (mm), momentum
// (MeV/c), sampled total energy (MeV), generation weight and emission time (ns).
type KinematicRecord struct {
	Particle string  `json:"particle,omitempty"`
	Position r3.Vec  `json:"position_mm"`
	Momentum r3.Vec  `json:"momentum_mev"`
	Energy   float64 `json:"energy_mev"`
	Weight   float64 `json:"weight"`
	Time     float64 `json:"time_ns"`
}

// MomentumMagnitude returns |p|.
func (k KinematicRecord) MomentumMagnitude() float64 {
	return r3.Norm(k.Momentum)
}

// MetricPoint represents a single metric data point
type MetricPoint struct {
	Timestamp time.Time         `json:"timestamp"`
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// MetricsSummary represents a summary of collected metrics
type MetricsSummary struct {
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	Duration     time.Duration           `json:"duration"`
	Metrics      map[string][]float64    `json:"metrics"` // metric name -> values
	Aggregations map[string]*Aggregation `json:"aggregations,omitempty"`
}

// Aggregation represents aggregated statistics for a metric
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

package metrics

import (
	"time"

	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
)

// Vertex metric names
const (
	MetricEnergy    = "vertex_energy_mev"
	MetricMomentum  = "vertex_momentum_mev"
	MetricWeight    = "vertex_weight"
	MetricPositionX = "vertex_position_x_mm"
	MetricPositionY = "vertex_position_y_mm"
	MetricPositionZ = "vertex_position_z_mm"
)

// RecordVertex records every per-vertex metric of rec. Points are stamped
// with the emission time measured from the Unix epoch.
func RecordVertex(collector *Collector, rec models.KinematicRecord, labels map[string]string) {
	ts := time.Unix(0, int64(rec.Time))
	collector.Record(MetricEnergy, rec.Energy, ts, labels)
	collector.Record(MetricMomentum, rec.MomentumMagnitude(), ts, labels)
	collector.Record(MetricWeight, rec.Weight, ts, labels)
	collector.Record(MetricPositionX, rec.Position.X, ts, labels)
	collector.Record(MetricPositionY, rec.Position.Y, ts, labels)
	collector.Record(MetricPositionZ, rec.Position.Z, ts, labels)
}

// CreateParticleLabels creates a labels map for a particle species
func CreateParticleLabels(particle string) map[string]string {
	if particle == "" {
		return nil
	}
	return map[string]string{
		"particle": particle,
	}
}

// ConvertToRunMetrics converts collector metrics to RunMetrics format.
// Event counters are owned by the run manager and left zero here.
func ConvertToRunMetrics(collector *Collector) *models.RunMetrics {
	rm := &models.RunMetrics{
		VerticesGenerated: int64(collector.Count(MetricEnergy)),
		Energy:            collector.GetTotalAggregation(MetricEnergy),
		Momentum:          collector.GetTotalAggregation(MetricMomentum),
		Weight:            collector.GetTotalAggregation(MetricWeight),
		PositionX:         collector.GetTotalAggregation(MetricPositionX),
		PositionY:         collector.GetTotalAggregation(MetricPositionY),
		PositionZ:         collector.GetTotalAggregation(MetricPositionZ),
	}
	if rm.Weight != nil {
		rm.TotalWeight = rm.Weight.Sum
	}
	if d := collector.Duration(); d > 0 {
		rm.ThroughputVPS = float64(rm.VerticesGenerated) / d.Seconds()
	}
	return rm
}

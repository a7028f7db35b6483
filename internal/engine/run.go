package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/vertex-source/internal/metrics"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
)

// RunManager manages the lifecycle of a generation run
type RunManager struct {
	run             *models.Run
	collector       *metrics.Collector
	eventsScheduled int64
	eventsProcessed int64
	mu              sync.RWMutex
	ctx             context.Context
	cancel          context.CancelFunc
}

// NewRunManager creates a new run manager
func NewRunManager(runID string) *RunManager {
	ctx, cancel := context.WithCancel(context.Background())

	return &RunManager{
		run: &models.Run{
			ID:        runID,
			Status:    models.RunStatusPending,
			StartTime: time.Now(),
			Config:    make(map[string]interface{}),
			Metadata:  make(map[string]string),
		},
		collector: metrics.NewCollector(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start marks the run as started
func (rm *RunManager) Start() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.run.Status = models.RunStatusRunning
	rm.run.StartTime = time.Now()
	rm.collector.Start()
}

// Complete marks the run as completed
func (rm *RunManager) Complete() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.finishLocked(models.RunStatusCompleted)
}

// Fail marks the run as failed. Metrics gathered up to the failure are kept.
func (rm *RunManager) Fail(err error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.finishLocked(models.RunStatusFailed)
	rm.run.Error = err.Error()
}

func (rm *RunManager) finishLocked(status models.RunStatus) {
	rm.run.Status = status
	rm.run.EndTime = time.Now()
	rm.run.Duration = rm.run.EndTime.Sub(rm.run.StartTime)
	rm.collector.Stop()
	rm.run.Metrics = rm.calculateMetrics()
}

// Cancel cancels the run
func (rm *RunManager) Cancel() {
	rm.cancel()
}

// Context returns the run's context
func (rm *RunManager) Context() context.Context {
	return rm.ctx
}

// Status returns the run status
func (rm *RunManager) Status() models.RunStatus {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.run.Status
}

// GetRun returns the current run state (thread-safe)
func (rm *RunManager) GetRun() *models.Run {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	// Create a copy to avoid race conditions
	runCopy := *rm.run
	return &runCopy
}

// Collector returns the run's vertex metrics collector
func (rm *RunManager) Collector() *metrics.Collector {
	return rm.collector
}

// RecordScheduled counts a scheduled event
func (rm *RunManager) RecordScheduled() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.eventsScheduled++
}

// RecordEvent counts a processed event and records its vertices
func (rm *RunManager) RecordEvent(event *Event) {
	rm.mu.Lock()
	rm.eventsProcessed++
	rm.mu.Unlock()

	for _, rec := range event.Vertices {
		metrics.RecordVertex(rm.collector, rec, metrics.CreateParticleLabels(rec.Particle))
	}
}

// SetConfig sets a configuration value
func (rm *RunManager) SetConfig(key string, value interface{}) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.run.Config[key] = value
}

// GetConfig gets a configuration value
func (rm *RunManager) GetConfig(key string) (interface{}, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	value, ok := rm.run.Config[key]
	return value, ok
}

// SetMetadata sets a metadata value
func (rm *RunManager) SetMetadata(key, value string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.run.Metadata[key] = value
}

// GetMetadata gets a metadata value
func (rm *RunManager) GetMetadata(key string) (string, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	value, ok := rm.run.Metadata[key]
	return value, ok
}

// calculateMetrics calculates final run metrics (caller must hold lock)
func (rm *RunManager) calculateMetrics() *models.RunMetrics {
	m := metrics.ConvertToRunMetrics(rm.collector)
	m.EventsScheduled = rm.eventsScheduled
	m.EventsProcessed = rm.eventsProcessed
	return m
}

// GetStats returns current run statistics
func (rm *RunManager) GetStats() map[string]interface{} {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	vertices := rm.collector.Count(metrics.MetricEnergy)
	elapsed := time.Since(rm.run.StartTime)
	if !rm.run.EndTime.IsZero() {
		elapsed = rm.run.Duration
	}

	var meanEnergy float64
	if agg := rm.collector.GetTotalAggregation(metrics.MetricEnergy); agg != nil {
		meanEnergy = agg.Mean
	}

	return map[string]interface{}{
		"status":             rm.run.Status,
		"elapsed":            elapsed.String(),
		"events_scheduled":   rm.eventsScheduled,
		"events_processed":   rm.eventsProcessed,
		"vertices_generated": vertices,
		"mean_energy_mev":    fmt.Sprintf("%.6g", meanEnergy),
		"throughput_vps":     fmt.Sprintf("%.2f", float64(vertices)/elapsed.Seconds()),
	}
}

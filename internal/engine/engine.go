package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/GoSim-25-26J-441/vertex-source/internal/vertex"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/logger"
)

// Engine is the discrete-event loop driving emission events
type Engine struct {
	eventQueue   *EventQueue
	runManager   *RunManager
	simTime      float64 // ns
	handlers     map[EventType]EventHandler
	sinks        []Sink
	logger       *slog.Logger
	eventCounter int64
}

// EventHandler is a function that handles a specific event type
type EventHandler func(*Engine, *Event) error

// Sink receives every event after its handler succeeds
type Sink interface {
	Consume(event *Event) error
}

// PrimaryGenerator fills an event with primaries
type PrimaryGenerator interface {
	GeneratePrimaries(t float64, sink vertex.EventSink) (int, error)
}

// ErrStopped is returned by Run when the engine is stopped mid-run
var ErrStopped = errors.New("engine: run stopped")

// NewEngine creates a new simulation engine
func NewEngine(runID string) *Engine {
	return &Engine{
		eventQueue: NewEventQueue(),
		runManager: NewRunManager(runID),
		handlers:   make(map[EventType]EventHandler),
		logger:     logger.Component("engine"),
	}
}

// SetLogger sets the engine's logger
func (e *Engine) SetLogger(l *slog.Logger) {
	e.logger = l
}

// RegisterHandler registers an event handler
func (e *Engine) RegisterHandler(eventType EventType, handler EventHandler) {
	e.handlers[eventType] = handler
}

// AddSink registers a sink for processed events
func (e *Engine) AddSink(s Sink) {
	e.sinks = append(e.sinks, s)
}

// ScheduleEvent schedules an event
func (e *Engine) ScheduleEvent(event *Event) {
	counter := atomic.AddInt64(&e.eventCounter, 1)
	if event.ID == "" {
		event.ID = fmt.Sprintf("evt-%d", counter)
	}
	event.Sequence = counter
	e.eventQueue.Schedule(event)
	if event.Type != EventTypeRunEnd {
		e.runManager.RecordScheduled()
	}

	e.logger.Debug("Event scheduled",
		"event_id", event.ID,
		"type", event.Type,
		"time_ns", event.Time,
		"queue_size", e.eventQueue.Size())
}

// ScheduleAt schedules an event at a specific simulation time (ns)
func (e *Engine) ScheduleAt(eventType EventType, t float64) *Event {
	event := &Event{
		Type: eventType,
		Time: t,
	}
	e.ScheduleEvent(event)
	return event
}

// EmissionHandler returns the handler that asks gen for the primaries of
// each emission event.
func EmissionHandler(gen PrimaryGenerator) EventHandler {
	return func(_ *Engine, event *Event) error {
		_, err := gen.GeneratePrimaries(event.Time, event)
		return err
	}
}

// Run processes events in time order until the queue drains or a run-end
// event is reached. The first handler or sink error fails the run.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Starting run",
		"run_id", e.runManager.run.ID,
		"events_queued", e.eventQueue.Size())

	e.runManager.Start()

	for {
		select {
		case <-ctx.Done():
			return e.fail(fmt.Errorf("run cancelled: %w", ctx.Err()))
		case <-e.runManager.Context().Done():
			return e.fail(ErrStopped)
		default:
		}

		event := e.eventQueue.Next()
		if event == nil {
			break
		}

		if event.Time < e.simTime {
			e.logger.Warn("Event scheduled in the past",
				"event_id", event.ID,
				"event_time_ns", event.Time,
				"sim_time_ns", e.simTime)
		} else {
			e.simTime = event.Time
		}

		if event.Type == EventTypeRunEnd {
			e.logger.Info("Run end reached",
				"sim_time_ns", e.simTime,
				"events_left", e.eventQueue.Size())
			break
		}

		handler, ok := e.handlers[event.Type]
		if !ok {
			e.logger.Warn("No handler for event type",
				"event_type", event.Type,
				"event_id", event.ID)
			continue
		}

		if err := handler(e, event); err != nil {
			return e.fail(fmt.Errorf("event %s: %w", event.ID, err))
		}
		for _, s := range e.sinks {
			if err := s.Consume(event); err != nil {
				return e.fail(fmt.Errorf("sink for event %s: %w", event.ID, err))
			}
		}
		e.runManager.RecordEvent(event)

		e.logger.Debug("Processed event",
			"event_id", event.ID,
			"type", event.Type,
			"time_ns", event.Time,
			"vertices", len(event.Vertices))
	}

	e.runManager.Complete()
	run := e.runManager.GetRun()
	e.logger.Info("Run completed",
		"run_id", run.ID,
		"duration", run.Duration,
		"events_processed", run.Metrics.EventsProcessed,
		"vertices", run.Metrics.VerticesGenerated)
	return nil
}

func (e *Engine) fail(err error) error {
	e.runManager.Fail(err)
	e.logger.Error("Run failed",
		"run_id", e.runManager.run.ID,
		"error", err)
	return err
}

// GetSimTime returns the current simulation time in ns
func (e *Engine) GetSimTime() float64 {
	return e.simTime
}

// GetRunManager returns the run manager
func (e *Engine) GetRunManager() *RunManager {
	return e.runManager
}

// GetEventQueue returns the event queue
func (e *Engine) GetEventQueue() *EventQueue {
	return e.eventQueue
}

// Stop stops the run
func (e *Engine) Stop() {
	e.runManager.Cancel()
	e.eventQueue.Clear()
	e.logger.Info("Run stopped")
}

// GetStats returns current run statistics
func (e *Engine) GetStats() map[string]interface{} {
	stats := e.runManager.GetStats()
	stats["sim_time_ns"] = e.simTime
	stats["events_in_queue"] = e.eventQueue.Size()
	return stats
}

package engine

import (
	"container/heap"
	"sync"

	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
)

// EventType represents the type of simulation event
type EventType string

const (
	// EventTypeEmission asks the source for primaries at the event time
	EventTypeEmission EventType = "emission"

	// EventTypeRunEnd stops the event loop when reached
	EventTypeRunEnd EventType = "run_end"
)

// Event represents one simulated event. Time is in ns; Sequence breaks ties
// between events scheduled at the same time, in scheduling order.
type Event struct {
	ID       string                   `json:"id"`
	Type     EventType                `json:"type"`
	Time     float64                  `json:"time_ns"`
	Sequence int64                    `json:"sequence"`
	Vertices []models.KinematicRecord `json:"vertices,omitempty"`
}

// AddPrimary attaches a generated vertex to the event
func (e *Event) AddPrimary(rec models.KinematicRecord) error {
	e.Vertices = append(e.Vertices, rec)
	return nil
}

// EventQueue is a priority queue of events ordered by time
type EventQueue struct {
	events []*Event
	mu     sync.RWMutex
}

// NewEventQueue creates a new event queue
func NewEventQueue() *EventQueue {
	eq := &EventQueue{
		events: make([]*Event, 0),
	}
	heap.Init(eq)
	return eq
}

// Len returns the number of events in the queue
func (eq *EventQueue) Len() int {
	return len(eq.events)
}

// Less compares two events by time, then sequence
func (eq *EventQueue) Less(i, j int) bool {
	if eq.events[i].Time != eq.events[j].Time {
		return eq.events[i].Time < eq.events[j].Time
	}
	return eq.events[i].Sequence < eq.events[j].Sequence
}

// Swap swaps two events in the queue
func (eq *EventQueue) Swap(i, j int) {
	eq.events[i], eq.events[j] = eq.events[j], eq.events[i]
}

// Push adds an event to the queue
func (eq *EventQueue) Push(x interface{}) {
	eq.events = append(eq.events, x.(*Event))
}

// Pop removes and returns the next event from the queue
func (eq *EventQueue) Pop() interface{} {
	old := eq.events
	n := len(old)
	event := old[n-1]
	old[n-1] = nil // avoid memory leak
	eq.events = old[0 : n-1]
	return event
}

// Schedule adds an event to the queue (thread-safe)
func (eq *EventQueue) Schedule(event *Event) {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	heap.Push(eq, event)
}

// Next removes and returns the next event (thread-safe)
func (eq *EventQueue) Next() *Event {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	if eq.Len() == 0 {
		return nil
	}
	return heap.Pop(eq).(*Event)
}

// Peek returns the next event without removing it (thread-safe)
func (eq *EventQueue) Peek() *Event {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	if eq.Len() == 0 {
		return nil
	}
	return eq.events[0]
}

// Clear removes all events from the queue (thread-safe)
func (eq *EventQueue) Clear() {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	eq.events = make([]*Event, 0)
	heap.Init(eq)
}

// Size returns the current queue size (thread-safe)
func (eq *EventQueue) Size() int {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	return eq.Len()
}

// IsEmpty returns true if the queue is empty (thread-safe)
func (eq *EventQueue) IsEmpty() bool {
	return eq.Size() == 0
}

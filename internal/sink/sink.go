// Package sink writes processed emission events out of the engine.
package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/GoSim-25-26J-441/vertex-source/internal/engine"
	"github.com/GoSim-25-26J-441/vertex-source/pkg/models"
)

// Line is one JSON-lines record: a vertex tagged with its event
type Line struct {
	EventID string `json:"event_id"`
	models.KinematicRecord
}

// JSONLines writes one JSON object per vertex
type JSONLines struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
	n   int64
}

// NewJSONLines creates a JSON-lines sink on w. Call Flush when done.
func NewJSONLines(w io.Writer) *JSONLines {
	bw := bufio.NewWriter(w)
	return &JSONLines{w: bw, enc: json.NewEncoder(bw)}
}

// Consume implements engine.Sink
func (s *JSONLines) Consume(event *engine.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range event.Vertices {
		if err := s.enc.Encode(Line{EventID: event.ID, KinematicRecord: rec}); err != nil {
			return fmt.Errorf("write vertex of %s: %w", event.ID, err)
		}
		s.n++
	}
	return nil
}

// Written returns the number of vertices written
func (s *JSONLines) Written() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Flush flushes buffered lines to the underlying writer
func (s *JSONLines) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

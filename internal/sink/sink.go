package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrClosed = errors.New("sink: closed")

// Record is one settled pipeline result.
type Record struct {
	RunID    string
	Pipeline string
	Tick     uint64
	Time     time.Time
	Value    float64
}

// Sink accepts settled records. Close flushes and releases resources.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// Memory keeps records in memory.
type Memory struct {
	mu      sync.Mutex
	records []Record
	closed  bool
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{records: make([]Record, 0)}
}

func (m *Memory) Write(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything written so far.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has run.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Multi fans each record out to every sink in order.
type Multi []Sink

func (m Multi) Write(ctx context.Context, rec Record) error {
	for i, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			return fmt.Errorf("sink[%d]: %w", i, err)
		}
	}
	return nil
}

// Close closes every sink even when some fail.
func (m Multi) Close() error {
	var errs []error
	for i, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sink[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

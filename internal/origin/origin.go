package origin

import (
	"sync"
)

/*
Marker is the durable slot recording which session started the most recent
batch of jobs. It outlives the in-memory job records so a completion can
still be attributed after the initiating session is gone.

At most one origin is meaningful at a time: MarkOrigin overwrites any
unconsumed marker (last writer wins), and the consumer that acts on a
completion clears it exactly once.
*/
type Marker interface {
	// MarkOrigin records viewID as the origin of the latest batch.
	MarkOrigin(viewID string) error
	// GetOrigin reads the current marker without clearing it. An empty
	// string means no marker is set.
	GetOrigin() (string, error)
	// ClearOrigin removes the marker.
	ClearOrigin() error
}

// MemoryMarker is the in-memory Marker used by tests and by sessions that do
// not need the marker to survive a restart.
type MemoryMarker struct {
	mu     sync.Mutex
	viewID string
}

func NewMemoryMarker() *MemoryMarker {
	return &MemoryMarker{}
}

func (m *MemoryMarker) MarkOrigin(viewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewID = viewID
	return nil
}

func (m *MemoryMarker) GetOrigin() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewID, nil
}

func (m *MemoryMarker) ClearOrigin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewID = ""
	return nil
}

package jobstore

import (
	"sync"

	"github.com/google/uuid"

	"muninn/internal/models"
)

/*
Store is the ordered, mutable collection of job records owned by a single
submitting session. It is the single source of truth for rendering progress.

All mutations are keyed by id and applied under the store lock, either as a
whole-record replacement or as an atomic read-modify-write via Update.
Records are only ever appended or explicitly removed; the stage driver never
drops one on its own.
*/
type Store struct {
	mu      sync.Mutex
	records []models.JobRecord
}

func New() *Store {
	return &Store{}
}

// Append adds a record to the end of the collection.
func (s *Store) Append(rec models.JobRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Replace swaps the stored record with the same id for the given one.
// It returns false when no record with that id exists anymore, which is how
// the stage driver learns that a record was removed mid-flight.
func (s *Store) Replace(rec models.JobRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == rec.ID {
			s.records[i] = rec
			return true
		}
	}
	return false
}

// Update applies mutate to the record with the given id while holding the
// store lock, so two updaters can never interleave a read-modify-write and
// clobber each other's fields. It returns false when no record with that id
// exists anymore, which is how the stage driver learns that a record was
// removed mid-flight.
func (s *Store) Update(id uuid.UUID, mutate func(*models.JobRecord)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			mutate(&s.records[i])
			return true
		}
	}
	return false
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id uuid.UUID) (models.JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			return s.records[i], true
		}
	}
	return models.JobRecord{}, false
}

// Remove deletes the record with the given id, preserving the order of the
// remaining records. Any in-flight processing for the id keeps running; its
// outcome is simply never reflected anywhere.
func (s *Store) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a snapshot copy of all records in submission order.
func (s *Store) List() []models.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.JobRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the current number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// AllTerminal reports whether every record has settled. An empty store is
// considered settled.
func (s *Store) AllTerminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if !models.TerminalStatus(s.records[i].Status) {
			return false
		}
	}
	return true
}

// LatestResult returns the result id of the most recently appended record
// that reached success.
func (s *Store) LatestResult() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Status == models.StatusSuccess && s.records[i].ResultID != nil {
			return *s.records[i].ResultID, true
		}
	}
	return "", false
}

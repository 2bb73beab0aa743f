package storage

import "sync"

// RecordStore is an in-memory store of one namespace's records, keyed by id.
//
// It is safe for concurrent use. Write consistency with the namespace's
// similarity index is the caller's job: the engine mutates both under one
// per-namespace lock.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]Record),
	}
}

// Upsert inserts rec or fully replaces the record with the same id. Metadata
// is replaced, not merged.
func (s *RecordStore) Upsert(rec Record) {
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
}

// Get returns the record with the given id.
func (s *RecordStore) Get(id string) (Record, bool) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	return rec, ok
}

// Delete removes the given ids and reports how many were present. Absent ids
// are ignored, so deletes are idempotent.
func (s *RecordStore) Delete(ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// Clear removes every record and reports how many were removed.
func (s *RecordStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records)
	s.records = make(map[string]Record)
	return n
}

// Len returns the current record count.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns every record in unspecified order.
func (s *RecordStore) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}

package testsupport

import (
	"context"
	"errors"
	"sort"
	"sync"

	"animehub/internal/catalog"
)

// MemoryStore is an in-memory catalog.Store with fault injection.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]catalog.Record

	// GetErrors fails Get for the listed secondary ids.
	GetErrors map[string]error
	// DeleteErrors fails Delete for the listed secondary ids.
	DeleteErrors map[string]error
	// CommitErr fails every CommitBatch without applying anything.
	CommitErr error
	// ScanErr fails Scan.
	ScanErr error

	Commits int
	Deleted []string
	closed  bool
}

var _ catalog.Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with records.
func NewMemoryStore(records ...catalog.Record) *MemoryStore {
	s := &MemoryStore{records: make(map[string]catalog.Record)}
	for _, r := range records {
		s.records[r.SecondaryID] = r
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (*catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.GetErrors[id]; err != nil {
		return nil, err
	}
	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// CommitBatch applies every write or none. Writes that do not stamp the
// episode keep the stored episode_added_at.
func (s *MemoryStore) CommitBatch(_ context.Context, writes []catalog.Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("memory store closed")
	}
	if s.CommitErr != nil {
		return s.CommitErr
	}
	s.Commits++
	for _, w := range writes {
		record := w.Record
		if existing, ok := s.records[record.SecondaryID]; ok {
			if !w.StampEpisodeAdded {
				record.EpisodeAddedAt = existing.EpisodeAddedAt
			}
			record.CreatedAt = existing.CreatedAt
		}
		s.records[record.SecondaryID] = record
	}
	return nil
}

func (s *MemoryStore) Scan(_ context.Context) ([]catalog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	out := make([]catalog.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SecondaryID < out[j].SecondaryID })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.DeleteErrors[id]; err != nil {
		return err
	}
	delete(s.records, id)
	s.Deleted = append(s.Deleted, id)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Record returns a copy of the stored record and whether it exists.
func (s *MemoryStore) Record(id string) (catalog.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	return r, ok
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

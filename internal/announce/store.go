package announce

import (
	"sync"
	"time"
)

// StoreConfig configures a Store.
type StoreConfig struct {
	// Clock stamps Created on appended records. Defaults to time.Now.
	Clock func() time.Time
}

// Store is the authoritative, process-lifetime collection of announcements.
// Records live only in memory; restarting the process starts empty. The
// next-id counter is independent of the current collection, so ids keep
// increasing across deletions and Clear.
type Store struct {
	mu      sync.Mutex
	clock   func() time.Time
	records []Announcement
	nextID  int64
}

// NewStore constructs an empty store.
func NewStore(cfg StoreConfig) *Store {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{clock: clock, nextID: 1}
}

// Append validates the draft, assigns the next id, stamps the creation time
// and stores the record. The only error is ErrEmptyText.
func (s *Store) Append(draft Draft) (Announcement, error) {
	normalized, err := draft.Normalize()
	if err != nil {
		return Announcement{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := Announcement{
		ID:       s.nextID,
		Text:     normalized.Text,
		Title:    normalized.Title,
		Type:     normalized.Type,
		Display:  normalized.Display,
		Duration: normalized.Duration,
		TTS:      normalized.TTS,
		Created:  s.clock().UnixMilli(),
	}
	s.nextID++
	s.records = append(s.records, record)
	return record, nil
}

// ListSince returns all records with id > since in ascending id order. A
// negative cursor behaves like zero. The returned slice is a copy.
func (s *Store) ListSince(since int64) []Announcement {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]Announcement, 0, len(s.records))
	for _, record := range s.records {
		if record.ID > since {
			matched = append(matched, record)
		}
	}
	return matched
}

// Delete removes the record with the given id. Deleting an absent id is not
// an error; the postcondition already holds.
func (s *Store) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.records[:0]
	for _, record := range s.records {
		if record.ID != id {
			remaining = append(remaining, record)
		}
	}
	s.records = remaining
}

// Clear removes every record without resetting the id counter.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

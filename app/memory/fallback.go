package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

const minRelevance = 0.1

// ListStore is the fallback backend: an append-only list capped at a fixed
// size, trimmed oldest-first, scored against queries by word overlap.
type ListStore struct {
	mu      sync.RWMutex
	cap     int
	records []Record
}

var _ Store = &ListStore{}

func NewListStore(capacity int) *ListStore {
	if capacity <= 0 {
		capacity = 100
	}
	return &ListStore{cap: capacity}
}

func (s *ListStore) Backend() string { return "list" }

func (s *ListStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if len(s.records) > s.cap {
		s.records = s.records[len(s.records)-s.cap:]
	}
	return nil
}

func (s *ListStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Search scores each record by |query_words ∩ text_words| / |query_words|,
// keeps scores above 0.1 and returns the top matches in descending order.
// Stable sort keeps insertion order among equal scores.
func (s *ListStore) Search(_ context.Context, query string, limit int) ([]Record, error) {
	words := wordSet(query)
	if len(words) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	type scored struct {
		score float64
		rec   Record
	}
	var matches []scored
	for _, rec := range s.records {
		textWords := wordSet(rec.Text)
		overlap := 0
		for w := range words {
			if textWords[w] {
				overlap++
			}
		}
		score := float64(overlap) / float64(len(words))
		if score > minRelevance {
			matches = append(matches, scored{score: score, rec: rec})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Record, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.rec)
	}
	return out, nil
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

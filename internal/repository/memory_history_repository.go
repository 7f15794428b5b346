// Package repository provides the reading-history stores.
package repository

import (
	"sync"
	"time"

	"secure-library/internal/domain"
)

// MemoryHistoryRepository keeps history in process memory. It is the
// default backend for local runs and tests; nothing survives a restart.
type MemoryHistoryRepository struct {
	mu      sync.Mutex
	entries map[string]map[string]*domain.HistoryEntry
	prefs   map[string]*domain.Preferences
}

// NewMemoryHistoryRepository creates an empty in-memory history store
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return &MemoryHistoryRepository{
		entries: make(map[string]map[string]*domain.HistoryEntry),
		prefs:   make(map[string]*domain.Preferences),
	}
}

// RecordView bumps the view counter for a book and the user's
// category/author affinities.
func (r *MemoryHistoryRepository) RecordView(userID, bookID, category, author string) error {
	if userID == "" {
		return domain.ErrUserIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	byBook, ok := r.entries[userID]
	if !ok {
		byBook = make(map[string]*domain.HistoryEntry)
		r.entries[userID] = byBook
	}
	if entry, ok := byBook[bookID]; ok {
		entry.ViewCount++
		entry.LastViewed = now
	} else {
		byBook[bookID] = &domain.HistoryEntry{
			UserID:      userID,
			BookID:      bookID,
			ViewCount:   1,
			FirstViewed: now,
			LastViewed:  now,
		}
	}

	prefs, ok := r.prefs[userID]
	if !ok {
		prefs = domain.NewPreferences(userID)
		r.prefs[userID] = prefs
	}
	if category != "" {
		prefs.Categories[category]++
	}
	if author != "" {
		prefs.Authors[author]++
	}
	prefs.UpdatedAt = now

	return nil
}

// History returns copies of the user's history entries.
func (r *MemoryHistoryRepository) History(userID string) ([]*domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.HistoryEntry
	for _, entry := range r.entries[userID] {
		copied := *entry
		out = append(out, &copied)
	}
	return out, nil
}

// Preferences returns a copy of the user's affinity counters; a user
// with no history gets empty preferences, not an error.
func (r *MemoryHistoryRepository) Preferences(userID string) (*domain.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefs, ok := r.prefs[userID]
	if !ok {
		return domain.NewPreferences(userID), nil
	}

	copied := domain.NewPreferences(userID)
	copied.UpdatedAt = prefs.UpdatedAt
	for k, v := range prefs.Categories {
		copied.Categories[k] = v
	}
	for k, v := range prefs.Authors {
		copied.Authors[k] = v
	}
	return copied, nil
}

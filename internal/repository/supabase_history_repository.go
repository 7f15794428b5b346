package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"

	"secure-library/internal/domain"
)

// SupabaseHistoryRepository stores reading history in Supabase tables
// (reading_history, user_preferences). Used when the server runs with a
// shared remote backend.
type SupabaseHistoryRepository struct {
	client *supabase.Client
	logger domain.Logger
}

// NewSupabaseHistoryRepository connects to Supabase with the anon key.
func NewSupabaseHistoryRepository(url, key string, logger domain.Logger) (*SupabaseHistoryRepository, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided")
	}

	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	logger.Info("Supabase history repository initialized", "url", url)
	return &SupabaseHistoryRepository{client: client, logger: logger}, nil
}

type historyRow struct {
	UserID      string    `json:"user_id"`
	BookID      string    `json:"book_id"`
	ViewCount   int       `json:"view_count"`
	FirstViewed time.Time `json:"first_viewed"`
	LastViewed  time.Time `json:"last_viewed"`
}

type preferencesRow struct {
	UserID     string         `json:"user_id"`
	Categories map[string]int `json:"categories"`
	Authors    map[string]int `json:"authors"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// RecordView upserts the history row for (user, book) and bumps the
// affinity counters in user_preferences.
func (r *SupabaseHistoryRepository) RecordView(userID, bookID, category, author string) error {
	if userID == "" {
		return domain.ErrUserIDRequired
	}

	now := time.Now().UTC()

	data, _, err := r.client.From("reading_history").
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("book_id", bookID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to read history row: %w", err)
	}

	var rows []historyRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to unmarshal history rows: %w", err)
	}

	row := historyRow{
		UserID:      userID,
		BookID:      bookID,
		ViewCount:   1,
		FirstViewed: now,
		LastViewed:  now,
	}
	if len(rows) > 0 {
		row = rows[0]
		row.ViewCount++
		row.LastViewed = now
	}

	if _, _, err := r.client.From("reading_history").
		Upsert(row, "user_id,book_id", "", "").
		Execute(); err != nil {
		return fmt.Errorf("failed to upsert history row: %w", err)
	}

	prefs, err := r.Preferences(userID)
	if err != nil {
		return err
	}
	if category != "" {
		prefs.Categories[category]++
	}
	if author != "" {
		prefs.Authors[author]++
	}

	prefsRow := preferencesRow{
		UserID:     userID,
		Categories: prefs.Categories,
		Authors:    prefs.Authors,
		UpdatedAt:  now,
	}
	if _, _, err := r.client.From("user_preferences").
		Upsert(prefsRow, "user_id", "", "").
		Execute(); err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}

	r.logger.Debug("View recorded", "user_id", userID, "book_id", bookID)
	return nil
}

// History returns every history entry for the user.
func (r *SupabaseHistoryRepository) History(userID string) ([]*domain.HistoryEntry, error) {
	data, _, err := r.client.From("reading_history").
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var rows []historyRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	entries := make([]*domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &domain.HistoryEntry{
			UserID:      row.UserID,
			BookID:      row.BookID,
			ViewCount:   row.ViewCount,
			FirstViewed: row.FirstViewed,
			LastViewed:  row.LastViewed,
		})
	}
	return entries, nil
}

// Preferences returns the user's affinity counters, defaulting to empty
// when no row exists yet.
func (r *SupabaseHistoryRepository) Preferences(userID string) (*domain.Preferences, error) {
	data, _, err := r.client.From("user_preferences").
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	var rows []preferencesRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}

	prefs := domain.NewPreferences(userID)
	if len(rows) > 0 {
		if rows[0].Categories != nil {
			prefs.Categories = rows[0].Categories
		}
		if rows[0].Authors != nil {
			prefs.Authors = rows[0].Authors
		}
		prefs.UpdatedAt = rows[0].UpdatedAt
	}
	return prefs, nil
}

package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"secure-library/internal/domain"
)

// Key layout: history/<user>/<book> and prefs/<user>, JSON values.

// BadgerHistoryRepository stores reading history in a local Badger
// database. Used when the server runs without a remote backend.
type BadgerHistoryRepository struct {
	db     *badger.DB
	logger domain.Logger
}

// NewBadgerHistoryRepository opens (or creates) the database at path.
func NewBadgerHistoryRepository(path string, logger domain.Logger) (*BadgerHistoryRepository, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty for a side store

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	logger.Info("Badger history repository opened", "path", path)
	return &BadgerHistoryRepository{db: db, logger: logger}, nil
}

// Close releases the underlying database.
func (r *BadgerHistoryRepository) Close() error {
	return r.db.Close()
}

func historyKey(userID, bookID string) []byte {
	return []byte("history/" + userID + "/" + bookID)
}

func historyPrefix(userID string) []byte {
	return []byte("history/" + userID + "/")
}

func prefsKey(userID string) []byte {
	return []byte("prefs/" + userID)
}

// RecordView updates the history entry and affinity counters in one
// transaction.
func (r *BadgerHistoryRepository) RecordView(userID, bookID, category, author string) error {
	if userID == "" {
		return domain.ErrUserIDRequired
	}

	now := time.Now().UTC()

	return r.db.Update(func(txn *badger.Txn) error {
		entry := domain.HistoryEntry{
			UserID:      userID,
			BookID:      bookID,
			ViewCount:   1,
			FirstViewed: now,
			LastViewed:  now,
		}

		item, err := txn.Get(historyKey(userID, bookID))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("failed to decode history entry: %w", err)
			}
			entry.ViewCount++
			entry.LastViewed = now
		case err != badger.ErrKeyNotFound:
			return fmt.Errorf("failed to read history entry: %w", err)
		}

		encoded, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("failed to encode history entry: %w", err)
		}
		if err := txn.Set(historyKey(userID, bookID), encoded); err != nil {
			return fmt.Errorf("failed to write history entry: %w", err)
		}

		prefs := domain.NewPreferences(userID)
		item, err = txn.Get(prefsKey(userID))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, prefs)
			}); err != nil {
				return fmt.Errorf("failed to decode preferences: %w", err)
			}
		case err != badger.ErrKeyNotFound:
			return fmt.Errorf("failed to read preferences: %w", err)
		}

		if category != "" {
			prefs.Categories[category]++
		}
		if author != "" {
			prefs.Authors[author]++
		}
		prefs.UpdatedAt = now

		encoded, err = json.Marshal(prefs)
		if err != nil {
			return fmt.Errorf("failed to encode preferences: %w", err)
		}
		return txn.Set(prefsKey(userID), encoded)
	})
}

// History iterates the user's history prefix.
func (r *BadgerHistoryRepository) History(userID string) ([]*domain.HistoryEntry, error) {
	var entries []*domain.HistoryEntry

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := historyPrefix(userID)
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry domain.HistoryEntry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return fmt.Errorf("failed to decode history entry: %w", err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Preferences reads the user's affinity counters, defaulting to empty.
func (r *BadgerHistoryRepository) Preferences(userID string) (*domain.Preferences, error) {
	prefs := domain.NewPreferences(userID)

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(prefsKey(userID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read preferences: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, prefs)
		})
	})
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

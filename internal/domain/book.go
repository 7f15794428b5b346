package domain

import (
	"fmt"
	"math"
	"time"
)

// Book represents one catalog entry. The JSON shape mirrors the manifest
// served by the content endpoint, so records round-trip unchanged.
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	Description string `json:"description"`

	// Filename references the ciphertext blob under the content server's
	// encrypted path.
	Filename  string `json:"filename"`
	Encrypted bool   `json:"encrypted"`

	// OriginalSize is the plaintext byte size, used only for display and
	// page-count estimation.
	OriginalSize int64  `json:"original_size"`
	CoverImage   string `json:"cover_image,omitempty"`

	// PageCount is populated by the encryption tool when it can read the
	// source PDF; zero means unknown.
	PageCount int `json:"page_count,omitempty"`
}

// Catalog maps book ids to their records. Loaded once per session and
// treated as read-only afterwards.
type Catalog map[string]*Book

// EstimatedPages guesses a page count from the plaintext size when the
// manifest does not carry a real one (roughly 10 pages per MiB, clamped).
func (b *Book) EstimatedPages() int {
	if b.PageCount > 0 {
		return b.PageCount
	}
	sizeMB := float64(b.OriginalSize) / (1024 * 1024)
	pages := int(math.Round(sizeMB * 10))
	if pages < 10 {
		pages = 10
	}
	if pages > 500 {
		pages = 500
	}
	return pages
}

// FormatFileSize renders a byte count for display ("1.5 MB")
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", bytes, units[0])
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}

// HistoryEntry records one user's views of one book.
type HistoryEntry struct {
	UserID      string    `json:"user_id"`
	BookID      string    `json:"book_id"`
	ViewCount   int       `json:"view_count"`
	FirstViewed time.Time `json:"first_viewed"`
	LastViewed  time.Time `json:"last_viewed"`
}

// Preferences holds the per-user affinity counters the recommender
// consumes. Counters increment each time a book is viewed.
type Preferences struct {
	UserID     string         `json:"user_id"`
	Categories map[string]int `json:"categories"`
	Authors    map[string]int `json:"authors"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewPreferences returns an empty preference set for a user
func NewPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:     userID,
		Categories: make(map[string]int),
		Authors:    make(map[string]int),
	}
}

package domain

import (
	"context"
	"image"
)

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLibraryPath() string
	GetContentBaseURL() string
	GetPassphrase() string
	GetHistoryBackend() string
	GetBadgerPath() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetLogLevel() string
}

// CatalogLoader fetches the book manifest. A failed load yields an empty
// catalog, never a nil one.
type CatalogLoader interface {
	Load(ctx context.Context) (Catalog, error)
}

// CiphertextFetcher retrieves the raw encrypted blob for a catalog entry.
type CiphertextFetcher interface {
	FetchCiphertext(ctx context.Context, filename string) ([]byte, error)
}

// DocumentOpener turns decrypted bytes into a renderable document. It is
// the seam between the viewer and the rendering backend.
type DocumentOpener interface {
	Open(data []byte) (RenderedDocument, error)
}

// RenderedDocument is an open document handle. Close must be called when
// the viewer is done with it.
type RenderedDocument interface {
	PageCount() int
	RenderPage(ctx context.Context, pageNum int, scale float64) (image.Image, error)
	Close() error
}

// PageSink receives rendered pages. It stands in for the canvas: the
// viewer draws into it and clears it on close.
type PageSink interface {
	Draw(pageNum int, img image.Image) error
	Clear() error
}

// HistoryRepository persists reading history and the affinity counters
// derived from it.
type HistoryRepository interface {
	RecordView(userID, bookID string, category, author string) error
	History(userID string) ([]*HistoryEntry, error)
	Preferences(userID string) (*Preferences, error)
}

// LibraryService defines the use-case operations exposed by the server.
type LibraryService interface {
	Catalog() Catalog
	Book(id string) (*Book, error)
	Search(query string, filters SearchFilters) []*Book
	Recommendations(userID string, limit int) ([]*Book, error)
	SimilarBooks(bookID string, limit int) ([]*Book, error)
	TrendingBooks(userID string, limit int) ([]*Book, error)
	RecordView(userID, bookID string) error
}

// SearchFilters narrows search results. Zero values mean "no filter".
type SearchFilters struct {
	Category  string
	Encrypted *bool
	SortBy    string
}

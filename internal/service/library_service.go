// Package service implements the library use cases exposed by the
// content server.
package service

import (
	"secure-library/internal/catalog"
	"secure-library/internal/domain"
)

// LibraryService answers catalog, search, recommendation, and history
// operations. The catalog is loaded once and treated as read-only.
type LibraryService struct {
	catalog     domain.Catalog
	history     domain.HistoryRepository
	recommender *catalog.Recommender
	logger      domain.Logger
}

// NewLibraryService creates the service over a loaded catalog
func NewLibraryService(books domain.Catalog, history domain.HistoryRepository, logger domain.Logger) *LibraryService {
	return &LibraryService{
		catalog:     books,
		history:     history,
		recommender: catalog.NewRecommender(books, history),
		logger:      logger,
	}
}

// Catalog returns the full book mapping.
func (s *LibraryService) Catalog() domain.Catalog {
	return s.catalog
}

// Book returns one record by id.
func (s *LibraryService) Book(id string) (*domain.Book, error) {
	book, ok := s.catalog[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return book, nil
}

// Search runs the scored catalog search.
func (s *LibraryService) Search(query string, filters domain.SearchFilters) []*domain.Book {
	return catalog.Search(s.catalog, query, filters)
}

// Recommendations returns personalized picks for the user.
func (s *LibraryService) Recommendations(userID string, limit int) ([]*domain.Book, error) {
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	return s.recommender.Personalized(userID, limit)
}

// SimilarBooks returns books most similar to the given one.
func (s *LibraryService) SimilarBooks(bookID string, limit int) ([]*domain.Book, error) {
	return s.recommender.Similar(bookID, limit)
}

// TrendingBooks returns the user's most viewed books.
func (s *LibraryService) TrendingBooks(userID string, limit int) ([]*domain.Book, error) {
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	return s.recommender.Trending(userID, limit)
}

// RecordView notes that the user opened a book, feeding the
// recommendation affinities.
func (s *LibraryService) RecordView(userID, bookID string) error {
	book, ok := s.catalog[bookID]
	if !ok {
		return domain.ErrBookNotFound
	}
	if err := s.history.RecordView(userID, bookID, book.Category, book.Author); err != nil {
		return err
	}
	s.logger.Debug("Book view recorded", "user_id", userID, "book_id", bookID)
	return nil
}

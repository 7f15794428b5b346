// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"
	"strconv"

	"secure-library/internal/catalog"
	"secure-library/internal/domain"

	"github.com/gorilla/mux"
)

const defaultRecommendationLimit = 5

// LibraryHandler handles catalog, search, and recommendation requests
type LibraryHandler struct {
	libraryService domain.LibraryService
	logger         domain.Logger
}

// NewLibraryHandler creates a new library handler
func NewLibraryHandler(libraryService domain.LibraryService, logger domain.Logger) *LibraryHandler {
	return &LibraryHandler{
		libraryService: libraryService,
		logger:         logger,
	}
}

// GetCatalog handles getting the full book catalog
func (h *LibraryHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	books := h.libraryService.Catalog()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"books": books,
		"count": len(books),
	})
}

// GetBook handles getting a single book by ID
func (h *LibraryHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookID := vars["id"]
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "Book ID is required")
		return
	}

	book, err := h.libraryService.Book(bookID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

// GetCategories handles listing the distinct catalog categories
func (h *LibraryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": catalog.Categories(h.libraryService.Catalog()),
	})
}

// SearchBooks handles catalog search with optional filters
func (h *LibraryHandler) SearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	filters := domain.SearchFilters{
		Category: r.URL.Query().Get("category"),
		SortBy:   r.URL.Query().Get("sort"),
	}
	if raw := r.URL.Query().Get("encrypted"); raw != "" {
		encrypted, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid encrypted filter")
			return
		}
		filters.Encrypted = &encrypted
	}

	results := h.libraryService.Search(query, filters)
	if results == nil {
		results = make([]*domain.Book, 0)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// GetRecommendations handles personalized recommendations for the
// requesting user
func (h *LibraryHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	books, err := h.libraryService.Recommendations(userID, limitParam(r))
	if err != nil {
		h.logger.Error("Failed to compute recommendations", err, "userId", userID)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": emptyIfNil(books),
	})
}

// GetTrending handles the view-count leaderboard for the requesting user
func (h *LibraryHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	books, err := h.libraryService.TrendingBooks(userID, limitParam(r))
	if err != nil {
		h.logger.Error("Failed to compute trending books", err, "userId", userID)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trending": emptyIfNil(books),
	})
}

// GetSimilarBooks handles content-based similarity for one book
func (h *LibraryHandler) GetSimilarBooks(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookID := vars["id"]
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "Book ID is required")
		return
	}

	books, err := h.libraryService.SimilarBooks(bookID, limitParam(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"similar": emptyIfNil(books),
	})
}

// RecordView handles recording a book open in the reading history
func (h *LibraryHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	vars := mux.Vars(r)
	bookID := vars["bookId"]
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "Book ID is required")
		return
	}

	if err := h.libraryService.RecordView(userID, bookID); err != nil {
		h.logger.Error("Failed to record view", err, "userId", userID, "bookId", bookID)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func limitParam(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultRecommendationLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultRecommendationLimit
	}
	return limit
}

func emptyIfNil(books []*domain.Book) []*domain.Book {
	if books == nil {
		return make([]*domain.Book, 0)
	}
	return books
}

package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"secure-library/internal/domain"

	"github.com/gorilla/mux"
)

// ContentHandler serves the catalog manifest and the encrypted blobs
// from the library directory
type ContentHandler struct {
	libraryPath string
	logger      domain.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(libraryPath string, logger domain.Logger) *ContentHandler {
	return &ContentHandler{
		libraryPath: libraryPath,
		logger:      logger,
	}
}

// GetManifest handles serving the raw catalog.json manifest
func (h *ContentHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.libraryPath, "catalog.json")
	if _, err := os.Stat(path); err != nil {
		h.logger.Warn("Manifest not found", "path", path)
		writeError(w, http.StatusNotFound, "Catalog manifest not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}

// GetEncryptedBook handles serving one encrypted payload. The body is
// opaque bytes; decryption happens on the client.
func (h *ContentHandler) GetEncryptedBook(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	// Reject anything that could escape the library directory.
	if filename == "" || filename != filepath.Base(filename) ||
		strings.Contains(filename, "..") || strings.HasPrefix(filename, ".") {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	path := filepath.Join(h.libraryPath, "encrypted", filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "Encrypted book not found")
		return
	}

	h.logger.Debug("Serving encrypted book", "filename", filename, "size", info.Size())
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}

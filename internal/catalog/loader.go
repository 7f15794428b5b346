// Package catalog loads, searches, and scores the book manifest.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"secure-library/internal/domain"
	apperrors "secure-library/pkg/errors"
)

// HTTPLoader fetches the manifest from the content server. One attempt
// per call; a failure degrades to an empty catalog plus a
// catalog-unavailable error instead of crashing the caller.
type HTTPLoader struct {
	manifestURL string
	client      *http.Client
	validator   *Validator
	logger      domain.Logger
}

// NewHTTPLoader creates a loader for the manifest at manifestURL.
func NewHTTPLoader(manifestURL string, client *http.Client, logger domain.Logger) (*HTTPLoader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPLoader{
		manifestURL: manifestURL,
		client:      client,
		validator:   validator,
		logger:      logger,
	}, nil
}

// Load fetches and parses the manifest.
func (l *HTTPLoader) Load(ctx context.Context) (domain.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.manifestURL, nil)
	if err != nil {
		return domain.Catalog{}, apperrors.NewCatalogUnavailableError("failed to build catalog request", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Error("Catalog fetch failed", err, "url", l.manifestURL)
		return domain.Catalog{}, apperrors.NewCatalogUnavailableError("failed to fetch catalog", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.logger.Warn("Catalog fetch returned non-success status", "status", resp.StatusCode)
		return domain.Catalog{}, apperrors.NewCatalogUnavailableError(
			fmt.Sprintf("catalog request returned status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Catalog{}, apperrors.NewCatalogUnavailableError("failed to read catalog body", err)
	}

	catalog, err := l.parse(data)
	if err != nil {
		return domain.Catalog{}, err
	}

	l.logger.Info("Catalog loaded", "books", len(catalog))
	return catalog, nil
}

func (l *HTTPLoader) parse(data []byte) (domain.Catalog, error) {
	return parseManifest(data, l.validator, l.logger)
}

// FileLoader reads the manifest from disk. The content server uses it to
// serve its own catalog.
type FileLoader struct {
	path      string
	validator *Validator
	logger    domain.Logger
}

// NewFileLoader creates a loader for the manifest file at path.
func NewFileLoader(path string, logger domain.Logger) (*FileLoader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &FileLoader{path: path, validator: validator, logger: logger}, nil
}

// Load reads and parses the manifest file.
func (l *FileLoader) Load(ctx context.Context) (domain.Catalog, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		l.logger.Error("Catalog file read failed", err, "path", l.path)
		return domain.Catalog{}, apperrors.NewCatalogUnavailableError("failed to read catalog file", err)
	}

	catalog, err := parseManifest(data, l.validator, l.logger)
	if err != nil {
		return domain.Catalog{}, err
	}

	l.logger.Info("Catalog loaded", "path", l.path, "books", len(catalog))
	return catalog, nil
}

// parseManifest decodes the id-keyed manifest object, validating each
// entry and skipping invalid ones with a warning.
func parseManifest(data []byte, validator *Validator, logger domain.Logger) (domain.Catalog, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Error("Catalog parse failed", err)
		return domain.Catalog{}, apperrors.NewCatalogUnavailableError("failed to parse catalog", err)
	}

	catalog := make(domain.Catalog, len(entries))
	for id, raw := range entries {
		if err := validator.Validate(raw); err != nil {
			logger.Warn("Skipping invalid catalog entry", "id", id, "reason", err.Error())
			continue
		}

		var book domain.Book
		if err := json.Unmarshal(raw, &book); err != nil {
			logger.Warn("Skipping undecodable catalog entry", "id", id, "reason", err.Error())
			continue
		}

		// The map key is authoritative for the id.
		book.ID = id
		catalog[id] = &book
	}

	return catalog, nil
}

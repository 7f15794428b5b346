// Package fetch retrieves ciphertext blobs from the content server.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"secure-library/internal/domain"
	apperrors "secure-library/pkg/errors"
)

// CiphertextFetcher issues one GET per blob against the content server's
// encrypted path. There is no retry or backoff: a failure aborts the
// open-document operation and is surfaced to the caller immediately.
type CiphertextFetcher struct {
	baseURL string
	client  *http.Client
	logger  domain.Logger
}

// NewCiphertextFetcher creates a fetcher rooted at baseURL. A nil client
// gets a default with a generous timeout.
func NewCiphertextFetcher(baseURL string, client *http.Client, logger domain.Logger) *CiphertextFetcher {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &CiphertextFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// FetchCiphertext downloads the encrypted blob for filename. Non-success
// responses become fetch errors carrying the upstream status; transport
// failures become network errors. Context cancellation aborts the request.
func (f *CiphertextFetcher) FetchCiphertext(ctx context.Context, filename string) ([]byte, error) {
	target := f.baseURL + "/encrypted/" + url.PathEscape(filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to build request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("Ciphertext fetch failed", err, "filename", filename)
		return nil, apperrors.NewNetworkError("failed to fetch encrypted file", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Warn("Ciphertext fetch returned non-success status",
			"filename", filename, "status", resp.StatusCode)
		return nil, apperrors.NewFetchError(
			fmt.Sprintf("failed to fetch encrypted file %q", filename), resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read encrypted file body", err)
	}

	f.logger.Debug("Fetched ciphertext", "filename", filename, "bytes", len(data))
	return data, nil
}

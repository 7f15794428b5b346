package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"secure-library/internal/domain"
)

// DirectorySink writes rendered pages as PNG files into a directory. It
// is the headless counterpart of the browser canvas.
type DirectorySink struct {
	dir    string
	logger domain.Logger

	mu      sync.Mutex
	written map[int]string
}

// NewDirectorySink creates the output directory if needed.
func NewDirectorySink(dir string, logger domain.Logger) (*DirectorySink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirectorySink{
		dir:     dir,
		logger:  logger,
		written: make(map[int]string),
	}, nil
}

// Draw encodes the page image to page-<n>.png, overwriting any previous
// render of the same page.
func (s *DirectorySink) Draw(pageNum int, img image.Image) error {
	path := filepath.Join(s.dir, fmt.Sprintf("page-%04d.png", pageNum))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create page file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode page %d: %w", pageNum, err)
	}

	s.mu.Lock()
	s.written[pageNum] = path
	s.mu.Unlock()

	s.logger.Debug("Page written", "page", pageNum, "path", path)
	return nil
}

// Clear removes every page file written so far.
func (s *DirectorySink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for pageNum, path := range s.written {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
		delete(s.written, pageNum)
	}
	return firstErr
}

// Command encrypt prepares a library directory: it encrypts every PDF
// under the input directory and writes the catalog.json manifest the
// server and viewer consume.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"secure-library/internal/domain"
	"secure-library/internal/secure"
	"secure-library/pkg/logger"
)

func main() {
	var (
		inDir         = flag.String("in", "", "directory containing source PDFs")
		outDir        = flag.String("out", "./library", "library directory to write (encrypted/ plus catalog.json)")
		passphraseEnv = flag.String("passphrase-env", "LIBRARY_PASSPHRASE", "environment variable holding the passphrase")
		category      = flag.String("category", "general", "category recorded for every book in this run")
		author        = flag.String("author", "", "author recorded for every book in this run")
		jobs          = flag.Int("jobs", 4, "number of files encrypted concurrently")
		logLevel      = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	log := logger.NewLogger(*logLevel)

	if *inDir == "" {
		log.Error("Missing required flag", nil, "flag", "--in")
		flag.Usage()
		os.Exit(2)
	}
	passphrase := os.Getenv(*passphraseEnv)
	if passphrase == "" {
		log.Error("Passphrase environment variable is empty", domain.ErrEmptyPassphrase, "variable", *passphraseEnv)
		os.Exit(2)
	}
	if *jobs < 1 {
		*jobs = 1
	}

	sources, err := findPDFs(*inDir)
	if err != nil {
		log.Error("Failed to scan input directory", err, "dir", *inDir)
		os.Exit(1)
	}
	if len(sources) == 0 {
		log.Warn("No PDF files found", "dir", *inDir)
		return
	}

	encryptedDir := filepath.Join(*outDir, "encrypted")
	if err := os.MkdirAll(encryptedDir, 0o755); err != nil {
		log.Error("Failed to create library directory", err, "dir", encryptedDir)
		os.Exit(1)
	}

	manifestPath := filepath.Join(*outDir, "catalog.json")
	books, err := loadManifest(manifestPath)
	if err != nil {
		log.Error("Failed to read existing manifest", err, "path", manifestPath)
		os.Exit(1)
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(*jobs)

	for _, source := range sources {
		g.Go(func() error {
			book, err := encryptOne(source, encryptedDir, passphrase, *category, *author)
			if err != nil {
				log.Error("Failed to encrypt book", err, "source", source)
				return err
			}
			mu.Lock()
			books[book.ID] = book
			mu.Unlock()
			log.Info("Encrypted book",
				"id", book.ID,
				"pages", book.PageCount,
				"size", domain.FormatFileSize(book.OriginalSize))
			return nil
		})
	}

	runErr := g.Wait()

	// Write whatever succeeded so a partial run is still usable.
	if err := writeManifest(manifestPath, books); err != nil {
		log.Error("Failed to write manifest", err, "path", manifestPath)
		os.Exit(1)
	}

	if runErr != nil {
		log.Error("Run finished with failures", runErr)
		os.Exit(1)
	}
	log.Info("Library ready", "books", len(books), "manifest", manifestPath)
}

func findPDFs(dir string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			sources = append(sources, path)
		}
		return nil
	})
	return sources, err
}

// encryptOne validates the source PDF, encrypts it, and returns the
// catalog record for the manifest.
func encryptOne(source, encryptedDir, passphrase, category, author string) (*domain.Book, error) {
	// Reject broken PDFs up front instead of shipping ciphertext the
	// viewer can never open.
	pageCount, err := api.PageCountFile(source)
	if err != nil {
		return nil, fmt.Errorf("not a readable pdf: %w", err)
	}

	plaintext, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}

	payload, err := secure.Encrypt(plaintext, passphrase)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(source)
	blobName := base + ".enc"
	if err := os.WriteFile(filepath.Join(encryptedDir, blobName), payload, 0o644); err != nil {
		return nil, err
	}

	return &domain.Book{
		ID:           slugify(base),
		Title:        titleFromFilename(base),
		Author:       author,
		Category:     category,
		Filename:     blobName,
		Encrypted:    true,
		OriginalSize: int64(len(plaintext)),
		PageCount:    pageCount,
	}, nil
}

func loadManifest(path string) (domain.Catalog, error) {
	books := domain.Catalog{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return books, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func writeManifest(path string, books domain.Catalog) error {
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// slugify derives a stable catalog id from a filename:
// "Linear Algebra.pdf" becomes "linear-algebra".
func slugify(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func titleFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// Command viewer drives the full reading pipeline from a terminal: it
// loads the catalog from a content server, opens one book, and writes
// the rendered pages as PNG files.
package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"secure-library/internal/catalog"
	"secure-library/internal/fetch"
	"secure-library/internal/render"
	"secure-library/internal/viewer"
	"secure-library/pkg/logger"
)

const requestTimeout = 30 * time.Second

func main() {
	var (
		baseURL       = flag.String("base-url", "http://localhost:8080", "content server base URL")
		bookID        = flag.String("book", "", "catalog id of the book to open")
		pagesSpec     = flag.String("pages", "", "pages to render, e.g. \"1,3,5-7\" (default: first page)")
		scale         = flag.Float64("scale", 1.0, "zoom level from 0.5 to 3.0 in steps of 0.25")
		outDir        = flag.String("out", "./pages", "directory for rendered PNG pages")
		passphraseEnv = flag.String("passphrase-env", "LIBRARY_PASSPHRASE", "environment variable holding the passphrase")
		logLevel      = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	log := logger.NewLogger(*logLevel)

	if *bookID == "" {
		log.Error("Missing required flag", nil, "flag", "--book")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: requestTimeout}

	loader, err := catalog.NewHTTPLoader(*baseURL+"/catalog.json", client, log)
	if err != nil {
		log.Error("Invalid base URL", err, "url", *baseURL)
		os.Exit(2)
	}
	books, err := loader.Load(ctx)
	if err != nil {
		log.Error("Catalog unavailable", err, "url", *baseURL)
		os.Exit(1)
	}

	sink, err := render.NewDirectorySink(*outDir, log)
	if err != nil {
		log.Error("Failed to create output directory", err, "dir", *outDir)
		os.Exit(1)
	}

	session := viewer.NewSession(viewer.Deps{
		Catalog:    books,
		Fetcher:    fetch.NewCiphertextFetcher(*baseURL, client, log),
		Opener:     render.NewFitzOpener(log),
		Sink:       sink,
		Passphrase: os.Getenv(*passphraseEnv),
		Logger:     log,
	})
	defer session.Close()

	if err := session.Open(ctx, *bookID); err != nil {
		log.Error("Failed to open book", err, "id", *bookID, "state", session.State().String())
		os.Exit(1)
	}

	if err := applyScale(ctx, session, *scale); err != nil {
		log.Error("Failed to apply zoom", err, "scale", *scale)
		os.Exit(1)
	}

	pages, err := parsePages(*pagesSpec, session.TotalPages())
	if err != nil {
		log.Error("Invalid pages flag", err, "pages", *pagesSpec)
		os.Exit(2)
	}
	for _, page := range pages {
		if err := session.GoToPage(ctx, page); err != nil {
			log.Error("Failed to render page", err, "page", page)
			os.Exit(1)
		}
	}

	log.Info("Done",
		"book", session.CurrentBook().Title,
		"pages", session.TotalPages(),
		"scale", session.Scale(),
		"out", *outDir)
}

// applyScale walks the zoom from the default 1.0 to the requested level
// one step at a time, the same way an interactive reader would.
func applyScale(ctx context.Context, session *viewer.Session, target float64) error {
	if target < viewer.MinScale || target > viewer.MaxScale {
		return fmt.Errorf("scale %.2f out of range [%.2f, %.2f]", target, viewer.MinScale, viewer.MaxScale)
	}
	steps := int(math.Round((target - 1.0) / viewer.ZoomStep))
	for i := 0; i < steps; i++ {
		if err := session.ZoomIn(ctx); err != nil {
			return err
		}
	}
	for i := 0; i > steps; i-- {
		if err := session.ZoomOut(ctx); err != nil {
			return err
		}
	}
	return nil
}

// parsePages expands a spec like "1,3,5-7" into page numbers. An empty
// spec means the first page, which Open already rendered.
func parsePages(spec string, totalPages int) ([]int, error) {
	if spec == "" {
		return nil, nil
	}
	var pages []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parseRange(part)
		if err != nil {
			return nil, err
		}
		for n := lo; n <= hi; n++ {
			if n < 1 || n > totalPages {
				return nil, fmt.Errorf("page %d out of range 1..%d", n, totalPages)
			}
			pages = append(pages, n)
		}
	}
	return pages, nil
}

func parseRange(part string) (int, int, error) {
	if lo, hi, found := strings.Cut(part, "-"); found {
		start, err := strconv.Atoi(lo)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range %q", part)
		}
		end, err := strconv.Atoi(hi)
		if err != nil || end < start {
			return 0, 0, fmt.Errorf("invalid range %q", part)
		}
		return start, end, nil
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid page %q", part)
	}
	return n, n, nil
}

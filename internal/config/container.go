package config

import (
	"context"
	"path/filepath"
	"time"

	"secure-library/internal/catalog"
	"secure-library/internal/domain"
	"secure-library/internal/repository"
	"secure-library/internal/service"
	"secure-library/pkg/logger"
)

const catalogLoadTimeout = 10 * time.Second

// Container holds all application dependencies
type Container struct {
	Config            domain.Config
	Logger            domain.Logger
	Catalog           domain.Catalog
	HistoryRepository domain.HistoryRepository
	LibraryService    domain.LibraryService

	closers []func() error
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	c := &Container{
		Config: cfg,
		Logger: appLogger,
	}

	// Load the catalog once at startup. A missing or unreadable manifest
	// still yields an empty catalog so the server can come up and report
	// the condition per request.
	loader, err := catalog.NewFileLoader(filepath.Join(cfg.GetLibraryPath(), "catalog.json"), appLogger)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), catalogLoadTimeout)
	defer cancel()
	books, err := loader.Load(ctx)
	if err != nil {
		appLogger.Warn("Catalog unavailable at startup, serving empty catalog", "error", err.Error())
	}
	c.Catalog = books

	historyRepo, err := c.newHistoryRepository(cfg, appLogger)
	if err != nil {
		return nil, err
	}
	c.HistoryRepository = historyRepo

	c.LibraryService = service.NewLibraryService(c.Catalog, historyRepo, appLogger)

	return c, nil
}

func (c *Container) newHistoryRepository(cfg domain.Config, appLogger domain.Logger) (domain.HistoryRepository, error) {
	switch cfg.GetHistoryBackend() {
	case "supabase":
		return repository.NewSupabaseHistoryRepository(cfg.GetSupabaseURL(), cfg.GetSupabaseKey(), appLogger)
	case "badger":
		repo, err := repository.NewBadgerHistoryRepository(cfg.GetBadgerPath(), appLogger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, repo.Close)
		return repo, nil
	default:
		return repository.NewMemoryHistoryRepository(), nil
	}
}

// Close releases resources held by the container
func (c *Container) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetLibraryService returns the library service instance
func (c *Container) GetLibraryService() domain.LibraryService {
	return c.LibraryService
}

package config

import (
	"os"

	"secure-library/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort     string
	LibraryPath    string
	ContentBaseURL string
	Passphrase     string
	HistoryBackend string
	BadgerPath     string
	SupabaseURL    string
	SupabaseKey    string
	LogLevel       string
}

// NewConfig creates a new configuration instance from the environment
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:     getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LibraryPath:    getEnvOrDefault("LIBRARY_PATH", "./library"),
		ContentBaseURL: getEnvOrDefault("CONTENT_BASE_URL", "http://localhost:8080"),
		Passphrase:     getEnvOrDefault("LIBRARY_PASSPHRASE", ""),
		HistoryBackend: getEnvOrDefault("HISTORY_BACKEND", "memory"),
		BadgerPath:     getEnvOrDefault("BADGER_PATH", "./library/history"),
		SupabaseURL:    getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:    getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLibraryPath returns the directory holding catalog.json and the
// encrypted blobs
func (c *AppConfig) GetLibraryPath() string {
	return c.LibraryPath
}

// GetContentBaseURL returns the base URL clients fetch content from
func (c *AppConfig) GetContentBaseURL() string {
	return c.ContentBaseURL
}

// GetPassphrase returns the library passphrase. Never a source literal:
// the key material always comes from the environment.
func (c *AppConfig) GetPassphrase() string {
	return c.Passphrase
}

// GetHistoryBackend returns the selected history store (memory, badger,
// or supabase)
func (c *AppConfig) GetHistoryBackend() string {
	return c.HistoryBackend
}

// GetBadgerPath returns the local history database path
func (c *AppConfig) GetBadgerPath() string {
	return c.BadgerPath
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

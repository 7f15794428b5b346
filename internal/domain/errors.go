package domain

import "errors"

// Common domain errors
var (
	ErrBookNotFound    = errors.New("book not found")
	ErrNoDocumentOpen  = errors.New("no document open")
	ErrViewerBusy      = errors.New("another document is loading")
	ErrUserIDRequired  = errors.New("user id required")
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")
)

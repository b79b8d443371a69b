package acousticdna

import "github.com/himanishpuri/fpstore/internal/storage"

// Storage failure categories, matchable with errors.Is.
var (
	ErrConnection    = storage.ErrConnection
	ErrTransient     = storage.ErrTransient
	ErrCapacity      = storage.ErrCapacity
	ErrNotFound      = storage.ErrNotFound
	ErrClosed        = storage.ErrClosed
	ErrInvalidConfig = storage.ErrInvalidConfig
	ErrInvalidHash   = storage.ErrInvalidHash
)

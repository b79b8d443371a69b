package utils

import (
	"github.com/google/uuid"
)

// GenerateUUID returns a random (version 4) UUID string.
func GenerateUUID() string {
	return uuid.NewString()
}

// ShortID is the first block of a UUID, enough to tell connections apart in logs.
func ShortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return id[:8]
}

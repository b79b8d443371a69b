package acousticdna

import "github.com/himanishpuri/fpstore/pkg/models"

type (
	Hash       = models.Hash
	HashOffset = models.HashOffset
	Match      = models.Match
	SongOffset = models.SongOffset
	Song       = models.Song
	Stats      = models.Stats
	PoolStats  = models.PoolStats
)

// ParseHash decodes a 40 character hex hash.
func ParseHash(s string) (Hash, error) {
	return models.ParseHash(s)
}

package main

import (
	"fmt"
	"strings"

	"github.com/himanishpuri/fpstore/pkg/acousticdna"
)

// Hash limit constants for validation
const (
	// MaxHashesHardLimit is the most pairs a single request may carry
	MaxHashesHardLimit = 50000

	// HashWarningThreshold triggers logging for large hash batches
	HashWarningThreshold = 5000

	// maxBodyBytes bounds request bodies; a pair encodes to well under 80 bytes
	maxBodyBytes = MaxHashesHardLimit * 80
)

// PairDTO is one (hash, offset) pair on the wire
type PairDTO struct {
	Hash   string `json:"hash"`
	Offset uint32 `json:"offset"`
}

func toPairs(in []PairDTO) ([]acousticdna.HashOffset, error) {
	if len(in) > MaxHashesHardLimit {
		return nil, fmt.Errorf("too many hashes: %d (maximum: %d)", len(in), MaxHashesHardLimit)
	}
	pairs := make([]acousticdna.HashOffset, len(in))
	for i, p := range in {
		h, err := acousticdna.ParseHash(p.Hash)
		if err != nil {
			return nil, fmt.Errorf("hash %d: %w", i, err)
		}
		pairs[i] = acousticdna.HashOffset{Hash: h, Offset: p.Offset}
	}
	return pairs, nil
}

// AddSongRequest is the request body for POST /api/songs
type AddSongRequest struct {
	Name   string    `json:"name"`
	Hashes []PairDTO `json:"hashes"`
}

// Validate checks if the request is valid
func (r *AddSongRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(r.Hashes) == 0 {
		return fmt.Errorf("hashes cannot be empty")
	}
	return nil
}

// AddSongResponse is the response for successful song addition
type AddSongResponse struct {
	Message      string `json:"message"`
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Fingerprints int    `json:"fingerprints"`
}

// MatchHashesRequest is the request body for POST /api/match/hashes
type MatchHashesRequest struct {
	Hashes []PairDTO `json:"hashes"`
}

// Validate checks if the request is valid
func (r *MatchHashesRequest) Validate() error {
	if len(r.Hashes) == 0 {
		return fmt.Errorf("hashes cannot be empty")
	}
	return nil
}

// MatchHashesResponse is the response for hash-based matching
type MatchHashesResponse struct {
	Matches []acousticdna.Match `json:"matches"`
	Songs   []SongMatchDTO      `json:"songs"`
	Count   int                 `json:"count"`
}

// SongMatchDTO aggregates matches for one song. BestDelta is the most
// frequent offset delta and Aligned is how many matches share it.
type SongMatchDTO struct {
	SongID    uint   `json:"song_id"`
	Name      string `json:"name"`
	Matches   int    `json:"matches"`
	BestDelta int64  `json:"best_delta"`
	Aligned   int    `json:"aligned"`
}

// SongDTO represents a song in API responses
type SongDTO struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Fingerprints int64  `json:"fingerprints"`
	CreatedAt    string `json:"created_at"`
}

// ListSongsResponse is the response for GET /api/songs
type ListSongsResponse struct {
	Songs []SongDTO `json:"songs"`
	Count int       `json:"count"`
}

// DeleteSongResponse is the response for DELETE /api/songs/{id}
type DeleteSongResponse struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status           string                `json:"status"`
	DatabasePath     string                `json:"database_path"`
	SongCount        int64                 `json:"song_count"`
	FingerprintCount int64                 `json:"fingerprint_count"`
	Pool             acousticdna.PoolStats `json:"pool"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

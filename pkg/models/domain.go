package models

import "time"

// Match is one stored occurrence of a queried hash.
// OffsetDelta is storedOffset - queryOffset; for a true match the deltas of
// one song cluster on a single value.
type Match struct {
	SongID      uint  `json:"song_id"`
	OffsetDelta int64 `json:"offset_delta"`
}

// Song represents a song entry in the database.
type Song struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Fingerprinted bool      `json:"fingerprinted"`
	CreatedAt     time.Time `json:"created_at"`
}

// PoolStats is a snapshot of connection pool counters.
type PoolStats struct {
	Capacity      int   `json:"capacity"`
	Idle          int   `json:"idle"`
	Opened        int64 `json:"opened"`
	Closed        int64 `json:"closed"`
	Reused        int64 `json:"reused"`
	ProbeFailures int64 `json:"probe_failures"`
}

// Stats summarises the store.
type Stats struct {
	Songs        int64     `json:"songs"`
	Fingerprints int64     `json:"fingerprints"`
	Pool         PoolStats `json:"pool"`
}

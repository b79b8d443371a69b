package acousticdna

import (
	"context"
	"iter"

	"github.com/himanishpuri/fpstore/pkg/models"
)

type Service interface {
	// IngestSong registers name, stores its fingerprints and marks it
	// fingerprinted. A failed ingest leaves no trace of the song.
	IngestSong(ctx context.Context, name string, pairs []models.HashOffset) (uint, error)
	InsertFingerprint(ctx context.Context, hash models.Hash, songID uint, offset uint32) error
	InsertFingerprints(ctx context.Context, songID uint, pairs []models.HashOffset) error

	// ResolveMatches streams (song_id, offset delta) for every stored
	// occurrence of the query hashes.
	//
	// ResolveMatches, LookupHash, Fingerprints and Dump keep a pooled
	// connection until the range loop ends. Under WithMaxConns(1) a Service
	// call from inside the loop body never gets a connection; use
	// MatchHashes or collect results before calling back into the Service.
	ResolveMatches(ctx context.Context, pairs []models.HashOffset) iter.Seq2[models.Match, error]
	MatchHashes(ctx context.Context, pairs []models.HashOffset) ([]models.Match, error)
	LookupHash(ctx context.Context, hash models.Hash) iter.Seq2[models.SongOffset, error]
	Fingerprints(ctx context.Context) iter.Seq2[models.SongOffset, error]
	Dump(ctx context.Context) iter.Seq2[models.Fingerprint, error]
	CountFingerprintsForSong(ctx context.Context, songID uint) (int64, error)

	GetSongByID(ctx context.Context, songID uint) (*models.Song, error)
	ListSongs(ctx context.Context) ([]models.Song, error)
	DeleteSong(ctx context.Context, songID uint) error
	PurgeUnfingerprinted(ctx context.Context) (int64, error)
	Empty(ctx context.Context) error
	Stats(ctx context.Context) (models.Stats, error)

	ResetPool()
	Close() error
}

type Storage interface {
	InsertSong(ctx context.Context, name string) (uint, error)
	SetSongFingerprinted(ctx context.Context, songID uint) error
	GetSongByID(ctx context.Context, songID uint) (*models.Song, error)
	ListSongs(ctx context.Context) ([]models.Song, error)
	DeleteSong(ctx context.Context, songID uint) error
	DeleteUnfingerprintedSongs(ctx context.Context) (int64, error)
	CountSongs(ctx context.Context) (int64, error)

	InsertOne(ctx context.Context, hash models.Hash, songID uint, offset uint32) error
	InsertMany(ctx context.Context, songID uint, pairs []models.HashOffset) error
	ResolveMatches(ctx context.Context, pairs []models.HashOffset) iter.Seq2[models.Match, error]
	LookupHash(ctx context.Context, hash models.Hash) iter.Seq2[models.SongOffset, error]
	IterateAllFingerprints(ctx context.Context) iter.Seq2[models.SongOffset, error]
	Dump(ctx context.Context) iter.Seq2[models.Fingerprint, error]
	CountFingerprintsForSong(ctx context.Context, songID uint) (int64, error)
	CountFingerprints(ctx context.Context) (int64, error)

	Setup(ctx context.Context) error
	Empty(ctx context.Context) error
	PoolStats() models.PoolStats
	ResetPool()
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

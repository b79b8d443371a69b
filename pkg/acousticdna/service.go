package acousticdna

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/himanishpuri/fpstore/pkg/logger"
	"github.com/himanishpuri/fpstore/pkg/models"
)

// ErrEmptyName is returned when a song is ingested without a name.
var ErrEmptyName = errors.New("song name is required")

// acousticService is the default implementation of the Service interface.
type acousticService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Set default logger if none provided
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	// Create or use provided storage
	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = newStorageFromConfig(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &acousticService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// IngestSong registers a song, stores its fingerprints and marks it
// fingerprinted. If any step after registration fails the song is deleted.
func (s *acousticService) IngestSong(ctx context.Context, name string, pairs []models.HashOffset) (uint, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	s.log.Infof("Ingesting song: %s (%d hashes)", name, len(pairs))

	songID, err := s.storage.InsertSong(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to register song: %w", err)
	}

	if err := s.storage.InsertMany(ctx, songID, pairs); err != nil {
		s.rollback(songID)
		return 0, fmt.Errorf("failed to store fingerprints: %w", err)
	}

	if err := s.storage.SetSongFingerprinted(ctx, songID); err != nil {
		s.rollback(songID)
		return 0, fmt.Errorf("failed to mark song fingerprinted: %w", err)
	}

	s.log.Infof("Successfully added song ID=%d", songID)
	return songID, nil
}

// rollback runs detached from the caller's context, which may be the
// reason ingestion failed.
func (s *acousticService) rollback(songID uint) {
	if err := s.storage.DeleteSong(context.Background(), songID); err != nil {
		s.log.Warnf("Failed to roll back song %d: %v", songID, err)
	}
}

func (s *acousticService) InsertFingerprint(ctx context.Context, hash models.Hash, songID uint, offset uint32) error {
	return s.storage.InsertOne(ctx, hash, songID, offset)
}

func (s *acousticService) InsertFingerprints(ctx context.Context, songID uint, pairs []models.HashOffset) error {
	return s.storage.InsertMany(ctx, songID, pairs)
}

func (s *acousticService) ResolveMatches(ctx context.Context, pairs []models.HashOffset) iter.Seq2[models.Match, error] {
	return s.storage.ResolveMatches(ctx, pairs)
}

// MatchHashes collects ResolveMatches into a slice.
func (s *acousticService) MatchHashes(ctx context.Context, pairs []models.HashOffset) ([]models.Match, error) {
	var matches []models.Match
	for m, err := range s.storage.ResolveMatches(ctx, pairs) {
		if err != nil {
			return matches, err
		}
		matches = append(matches, m)
	}
	s.log.Debugf("Resolved %d hashes into %d matches", len(pairs), len(matches))
	return matches, nil
}

func (s *acousticService) LookupHash(ctx context.Context, hash models.Hash) iter.Seq2[models.SongOffset, error] {
	return s.storage.LookupHash(ctx, hash)
}

func (s *acousticService) Fingerprints(ctx context.Context) iter.Seq2[models.SongOffset, error] {
	return s.storage.IterateAllFingerprints(ctx)
}

// Dump streams every stored (hash, song_id, offset) row.
func (s *acousticService) Dump(ctx context.Context) iter.Seq2[models.Fingerprint, error] {
	return s.storage.Dump(ctx)
}

func (s *acousticService) CountFingerprintsForSong(ctx context.Context, songID uint) (int64, error) {
	return s.storage.CountFingerprintsForSong(ctx, songID)
}

// GetSongByID retrieves a song's metadata by its database ID.
func (s *acousticService) GetSongByID(ctx context.Context, songID uint) (*models.Song, error) {
	return s.storage.GetSongByID(ctx, songID)
}

// ListSongs returns all fingerprinted songs in the database.
func (s *acousticService) ListSongs(ctx context.Context) ([]models.Song, error) {
	return s.storage.ListSongs(ctx)
}

// DeleteSong removes a song and all its fingerprints from the database.
func (s *acousticService) DeleteSong(ctx context.Context, songID uint) error {
	return s.storage.DeleteSong(ctx, songID)
}

// PurgeUnfingerprinted removes songs left behind by interrupted ingests.
func (s *acousticService) PurgeUnfingerprinted(ctx context.Context) (int64, error) {
	n, err := s.storage.DeleteUnfingerprintedSongs(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Infof("Purged %d unfingerprinted songs", n)
	return n, nil
}

func (s *acousticService) Empty(ctx context.Context) error {
	if err := s.storage.Empty(ctx); err != nil {
		return err
	}
	s.log.Warnf("Emptied database")
	return nil
}

func (s *acousticService) Stats(ctx context.Context) (models.Stats, error) {
	songs, err := s.storage.CountSongs(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	fps, err := s.storage.CountFingerprints(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return models.Stats{Songs: songs, Fingerprints: fps, Pool: s.storage.PoolStats()}, nil
}

// ResetPool drops idle connections. Call it in worker processes after a fork.
func (s *acousticService) ResetPool() {
	s.storage.ResetPool()
}

// Close releases all resources held by the service.
func (s *acousticService) Close() error {
	return s.storage.Close()
}

package acousticdna

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/fpstore/internal/storage"
	"github.com/himanishpuri/fpstore/pkg/logger"
	"github.com/himanishpuri/fpstore/pkg/models"
)

// setupTestService creates a test service with a temporary database
func setupTestService(t *testing.T, opts ...Option) Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_service_acoustic.sqlite3")
	t.Setenv("ACOUSTIC_DB_PATH", dbPath)

	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	service, err := NewService(opts...)
	if err != nil {
		t.Fatalf("Failed to create test service: %v", err)
	}
	t.Cleanup(func() {
		service.Close()
	})
	return service
}

func testPairs(n, base int) []models.HashOffset {
	pairs := make([]models.HashOffset, n)
	for i := range pairs {
		pairs[i] = models.HashOffset{
			Hash:   models.MustParseHash(fmt.Sprintf("%040x", base+i+1)),
			Offset: uint32(i * 10),
		}
	}
	return pairs
}

func TestIngestAndMatch(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	pairs := testPairs(50, 0)
	songID, err := service.IngestSong(ctx, "Sandstorm", pairs)
	if err != nil {
		t.Fatalf("IngestSong failed: %v", err)
	}

	song, err := service.GetSongByID(ctx, songID)
	if err != nil {
		t.Fatalf("GetSongByID failed: %v", err)
	}
	if !song.Fingerprinted {
		t.Error("Expected song to be marked fingerprinted")
	}

	// a query that starts 30 frames into the song
	query := make([]models.HashOffset, 0, 10)
	for _, p := range pairs[3:13] {
		query = append(query, models.HashOffset{Hash: p.Hash, Offset: p.Offset - 30})
	}
	matches, err := service.MatchHashes(ctx, query)
	if err != nil {
		t.Fatalf("MatchHashes failed: %v", err)
	}
	if len(matches) != 10 {
		t.Fatalf("Expected 10 matches, got %d", len(matches))
	}
	for _, m := range matches {
		if m.SongID != songID || m.OffsetDelta != 30 {
			t.Errorf("Expected (%d, 30), got %+v", songID, m)
		}
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Songs != 1 || stats.Fingerprints != 50 {
		t.Errorf("Expected 1 song and 50 fingerprints, got %+v", stats)
	}
	if stats.Pool.Capacity != 5 {
		t.Errorf("Expected pool capacity 5, got %d", stats.Pool.Capacity)
	}
}

func TestIngestEmptyName(t *testing.T) {
	service := setupTestService(t)
	if _, err := service.IngestSong(context.Background(), "", nil); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
}

// failingStorage fails fingerprint inserts and records rollbacks.
type failingStorage struct {
	Storage
	insertErr error
	deleted   []uint
}

func (f *failingStorage) InsertMany(ctx context.Context, songID uint, pairs []models.HashOffset) error {
	return f.insertErr
}

func (f *failingStorage) DeleteSong(ctx context.Context, songID uint) error {
	f.deleted = append(f.deleted, songID)
	return f.Storage.DeleteSong(ctx, songID)
}

func TestIngestRollsBackOnFailure(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rollback.sqlite3")
	backing, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	fake := &failingStorage{Storage: backing, insertErr: errors.New("disk full")}

	service := setupTestService(t, WithStorage(fake))
	ctx := context.Background()

	_, err = service.IngestSong(ctx, "Doomed", testPairs(3, 0))
	if err == nil {
		t.Fatal("Expected ingest to fail")
	}
	if len(fake.deleted) != 1 {
		t.Fatalf("Expected one rollback, got %v", fake.deleted)
	}
	if _, err := service.GetSongByID(ctx, fake.deleted[0]); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected rolled back song to be gone, got %v", err)
	}
}

func TestDeleteAndPurge(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	keep, _ := service.IngestSong(ctx, "Keep", testPairs(5, 0))
	drop, _ := service.IngestSong(ctx, "Drop", testPairs(5, 100))

	if err := service.DeleteSong(ctx, drop); err != nil {
		t.Fatalf("DeleteSong failed: %v", err)
	}
	songs, _ := service.ListSongs(ctx)
	if len(songs) != 1 || songs[0].ID != keep {
		t.Errorf("Expected only song %d, got %+v", keep, songs)
	}

	n, err := service.PurgeUnfingerprinted(ctx)
	if err != nil || n != 0 {
		t.Errorf("Expected nothing to purge, got %d (err %v)", n, err)
	}

	count := 0
	for _, err := range service.Fingerprints(ctx) {
		if err != nil {
			t.Fatalf("Fingerprints failed: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected 5 fingerprints, got %d", count)
	}
}

func TestOptionsReachStorage(t *testing.T) {
	service := setupTestService(t, WithPoolSize(2), WithBatchSize(10), WithMaxConns(3))
	stats, err := service.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Pool.Capacity != 2 {
		t.Errorf("Expected pool capacity 2, got %d", stats.Pool.Capacity)
	}

	if _, err := NewService(WithDBPath(filepath.Join(t.TempDir(), "x.db")), WithBatchSize(-1)); !errors.Is(err, storage.ErrCapacity) {
		t.Errorf("Expected ErrCapacity for bad batch size, got %v", err)
	}
}

func TestResetPool(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	service.Stats(ctx)

	service.ResetPool()
	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats after reset failed: %v", err)
	}
	if stats.Pool.Opened < 2 {
		t.Errorf("Expected a fresh connection after reset, opened %d", stats.Pool.Opened)
	}
}

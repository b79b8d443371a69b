package storage

import (
	"context"
	"iter"
	"slices"

	"github.com/himanishpuri/fpstore/internal/chunk"
	"github.com/himanishpuri/fpstore/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsertOne stores a single fingerprint. Storing a triple that already
// exists is a silent no-op.
func (c *DBClient) InsertOne(ctx context.Context, hash models.Hash, songID uint, offset uint32) error {
	return c.withWriteSession(ctx, "insert fingerprint", func(tx *gorm.DB) error {
		row := Fingerprint{Hash: hash, SongID: songID, Offset: offset}
		return insertIgnore(tx, &row)
	})
}

// InsertMany stores pairs for songID in chunks of BatchSize rows, one
// multi-row INSERT per chunk, all in one session. Duplicates are skipped.
func (c *DBClient) InsertMany(ctx context.Context, songID uint, pairs []models.HashOffset) error {
	return c.InsertManySeq(ctx, songID, slices.Values(pairs))
}

// InsertManySeq is InsertMany over a stream of pairs.
func (c *DBClient) InsertManySeq(ctx context.Context, songID uint, pairs iter.Seq[models.HashOffset]) error {
	const op = "insert fingerprints"
	if c == nil {
		return wrapError(op, ErrNilClient)
	}
	if err := validateBatchSize(c.opts.BatchSize); err != nil {
		return wrapError(op, err)
	}

	var rows, statements int
	err := c.withWriteSession(ctx, op, func(tx *gorm.DB) error {
		for group := range chunk.Seq(pairs, c.opts.BatchSize) {
			batch := make([]Fingerprint, len(group))
			for i, p := range group {
				batch[i] = Fingerprint{Hash: p.Hash, SongID: songID, Offset: p.Offset}
			}
			if err := insertIgnore(tx, &batch); err != nil {
				return err
			}
			rows += len(batch)
			statements++
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Debugf("stored %d fingerprints for song %d in %d statements", rows, songID, statements)
	return nil
}

func insertIgnore(tx *gorm.DB, value any) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(value).Error
}

// CountFingerprintsForSong counts the fingerprints stored for one song.
func (c *DBClient) CountFingerprintsForSong(ctx context.Context, songID uint) (int64, error) {
	var n int64
	err := c.withSession(ctx, "count song fingerprints", func(tx *gorm.DB) error {
		return tx.Model(&Fingerprint{}).Where("song_id = ?", songID).Count(&n).Error
	})
	return n, err
}

// IterateAllFingerprints streams (song_id, offset) for every stored row.
func (c *DBClient) IterateAllFingerprints(ctx context.Context) iter.Seq2[models.SongOffset, error] {
	return c.streamSongOffsets(ctx, "iterate fingerprints",
		`SELECT song_id, "offset" FROM fingerprints`)
}

// LookupHash streams every stored occurrence of one hash.
func (c *DBClient) LookupHash(ctx context.Context, hash models.Hash) iter.Seq2[models.SongOffset, error] {
	return c.streamSongOffsets(ctx, "lookup hash",
		`SELECT song_id, "offset" FROM fingerprints WHERE hash = ?`, hash)
}

// streamSongOffsets holds one connection for the whole loop, like
// ResolveMatches.
func (c *DBClient) streamSongOffsets(ctx context.Context, op, query string, args ...any) iter.Seq2[models.SongOffset, error] {
	return func(yield func(models.SongOffset, error) bool) {
		stopped := false
		err := c.withSession(ctx, op, func(tx *gorm.DB) error {
			rows, err := tx.Raw(query, args...).Rows()
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var so models.SongOffset
				if err := rows.Scan(&so.SongID, &so.Offset); err != nil {
					return err
				}
				if !yield(so, nil) {
					stopped = true
					return nil
				}
			}
			return rows.Err()
		})
		if err != nil && !stopped {
			yield(models.SongOffset{}, err)
		}
	}
}

// Dump streams every stored fingerprint in insertion order. Its connection
// stays checked out until the loop ends.
func (c *DBClient) Dump(ctx context.Context) iter.Seq2[models.Fingerprint, error] {
	return func(yield func(models.Fingerprint, error) bool) {
		stopped := false
		err := c.withSession(ctx, "dump fingerprints", func(tx *gorm.DB) error {
			rows, err := tx.Raw(`SELECT hash, song_id, "offset" FROM fingerprints ORDER BY rowid`).Rows()
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var fp models.Fingerprint
				if err := rows.Scan(&fp.Hash, &fp.SongID, &fp.Offset); err != nil {
					return err
				}
				if !yield(fp, nil) {
					stopped = true
					return nil
				}
			}
			return rows.Err()
		})
		if err != nil && !stopped {
			yield(models.Fingerprint{}, err)
		}
	}
}

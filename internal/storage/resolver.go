package storage

import (
	"context"
	"iter"

	"github.com/himanishpuri/fpstore/internal/chunk"
	"github.com/himanishpuri/fpstore/pkg/models"
	"gorm.io/gorm"
)

const lookupQuery = `SELECT hash, song_id, "offset" FROM fingerprints WHERE hash IN ?`

// queryBatch maps each distinct query hash to its query offset. A hash seen
// more than once keeps its last offset and its first position.
type queryBatch struct {
	keys    []models.Hash
	offsets map[models.Hash]uint32
}

func newQueryBatch(pairs []models.HashOffset) queryBatch {
	b := queryBatch{
		keys:    make([]models.Hash, 0, len(pairs)),
		offsets: make(map[models.Hash]uint32, len(pairs)),
	}
	for _, p := range pairs {
		if _, seen := b.offsets[p.Hash]; !seen {
			b.keys = append(b.keys, p.Hash)
		}
		b.offsets[p.Hash] = p.Offset
	}
	return b
}

// ResolveMatches finds every stored occurrence of the query hashes and
// yields (song_id, stored offset - query offset) for each.
//
// Hashes are looked up BatchSize at a time, one IN query per chunk, inside a
// single session. Results stream lazily: rows of a chunk arrive in store
// order and chunks in first-seen hash order. If a chunk fails, matches from
// earlier chunks have already been yielded and the error is yielded once at
// the end. Breaking out of the loop ends the session.
//
// The session's connection, and its MaxConns slot, stay checked out until
// the loop ends. With MaxConns set, store calls made from inside the loop
// body compete for the remaining slots and block forever at MaxConns=1;
// collect the matches first when the loop needs the store.
func (c *DBClient) ResolveMatches(ctx context.Context, pairs []models.HashOffset) iter.Seq2[models.Match, error] {
	const op = "resolve matches"
	return func(yield func(models.Match, error) bool) {
		batch := newQueryBatch(pairs)
		if len(batch.keys) == 0 {
			return
		}
		if c == nil {
			yield(models.Match{}, wrapError(op, ErrNilClient))
			return
		}
		if err := validateBatchSize(c.opts.BatchSize); err != nil {
			yield(models.Match{}, wrapError(op, err))
			return
		}

		stopped := false
		lookups := 0
		err := c.withSession(ctx, op, func(tx *gorm.DB) error {
			for keys := range chunk.Slice(batch.keys, c.opts.BatchSize) {
				lookups++
				more, err := resolveChunk(tx, keys, batch.offsets, yield)
				if err != nil {
					return err
				}
				if !more {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if stopped {
			return
		}
		if err != nil {
			yield(models.Match{}, err)
			return
		}
		c.log.Debugf("resolved %d hashes in %d lookups", len(batch.keys), lookups)
	}
}

func resolveChunk(tx *gorm.DB, keys []models.Hash, offsets map[models.Hash]uint32, yield func(models.Match, error) bool) (bool, error) {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := tx.Raw(lookupQuery, args).Rows()
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hash   models.Hash
			songID uint
			stored uint32
		)
		if err := rows.Scan(&hash, &songID, &stored); err != nil {
			return false, err
		}
		queryOffset, ok := offsets[hash]
		if !ok {
			continue
		}
		m := models.Match{SongID: songID, OffsetDelta: int64(stored) - int64(queryOffset)}
		if !yield(m, nil) {
			return false, nil
		}
	}
	return true, rows.Err()
}

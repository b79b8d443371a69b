package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/himanishpuri/fpstore/pkg/models"
	"gorm.io/gorm"
)

// InsertSong registers a song that has not been fingerprinted yet.
func (c *DBClient) InsertSong(ctx context.Context, name string) (uint, error) {
	song := Song{Name: name}
	err := c.withWriteSession(ctx, "insert song", func(tx *gorm.DB) error {
		return tx.Create(&song).Error
	})
	if err != nil {
		return 0, err
	}
	return song.ID, nil
}

func (c *DBClient) GetSongByID(ctx context.Context, songID uint) (*models.Song, error) {
	var song Song
	err := c.withSession(ctx, "get song", func(tx *gorm.DB) error {
		err := tx.Where("song_id = ?", songID).Take(&song).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: song %d", ErrNotFound, songID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	m := song.toModel()
	return &m, nil
}

func (c *DBClient) GetSongName(ctx context.Context, songID uint) (string, error) {
	song, err := c.GetSongByID(ctx, songID)
	if err != nil {
		return "", err
	}
	return song.Name, nil
}

// ListSongs returns fingerprinted songs in id order.
func (c *DBClient) ListSongs(ctx context.Context) ([]models.Song, error) {
	var rows []Song
	err := c.withSession(ctx, "list songs", func(tx *gorm.DB) error {
		return tx.Where("fingerprinted = 1").Order("song_id").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Song, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// SetSongFingerprinted marks a song complete once all of its fingerprints
// are stored.
func (c *DBClient) SetSongFingerprinted(ctx context.Context, songID uint) error {
	return c.withWriteSession(ctx, "set fingerprinted", func(tx *gorm.DB) error {
		res := tx.Model(&Song{}).Where("song_id = ?", songID).Update("fingerprinted", 1)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: song %d", ErrNotFound, songID)
		}
		return nil
	})
}

// DeleteUnfingerprintedSongs removes songs whose ingestion never completed.
// Their fingerprints go with them.
func (c *DBClient) DeleteUnfingerprintedSongs(ctx context.Context) (int64, error) {
	var n int64
	err := c.withWriteSession(ctx, "delete unfingerprinted", func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM fingerprints WHERE song_id IN (SELECT song_id FROM songs WHERE fingerprinted = 0)`).Error; err != nil {
			return err
		}
		res := tx.Exec(`DELETE FROM songs WHERE fingerprinted = 0`)
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// DeleteSong removes a song and its fingerprints.
func (c *DBClient) DeleteSong(ctx context.Context, songID uint) error {
	return c.withWriteSession(ctx, "delete song", func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", songID).Delete(&Fingerprint{}).Error; err != nil {
			return err
		}
		res := tx.Where("song_id = ?", songID).Delete(&Song{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: song %d", ErrNotFound, songID)
		}
		return nil
	})
}

// DeleteFingerprints removes every fingerprint and keeps the songs.
func (c *DBClient) DeleteFingerprints(ctx context.Context) (int64, error) {
	var n int64
	err := c.withWriteSession(ctx, "delete fingerprints", func(tx *gorm.DB) error {
		res := tx.Exec(`DELETE FROM fingerprints`)
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// DeleteSongs removes every song and, by cascade, every fingerprint.
func (c *DBClient) DeleteSongs(ctx context.Context) (int64, error) {
	var n int64
	err := c.withWriteSession(ctx, "delete songs", func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM fingerprints`).Error; err != nil {
			return err
		}
		res := tx.Exec(`DELETE FROM songs`)
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// CountSongs counts fingerprinted songs.
func (c *DBClient) CountSongs(ctx context.Context) (int64, error) {
	var n int64
	err := c.withSession(ctx, "count songs", func(tx *gorm.DB) error {
		return tx.Model(&Song{}).Where("fingerprinted = 1").Count(&n).Error
	})
	return n, err
}

func (c *DBClient) CountFingerprints(ctx context.Context) (int64, error) {
	var n int64
	err := c.withSession(ctx, "count fingerprints", func(tx *gorm.DB) error {
		return tx.Model(&Fingerprint{}).Count(&n).Error
	})
	return n, err
}

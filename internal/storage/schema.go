package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/himanishpuri/fpstore/pkg/models"
	"gorm.io/gorm"
)

const (
	songsTable        = "songs"
	fingerprintsTable = "fingerprints"
)

// Song is the row shape of the songs table.
type Song struct {
	ID            uint      `gorm:"column:song_id;primaryKey;autoIncrement"`
	Name          string    `gorm:"column:song_name"`
	Fingerprinted bool      `gorm:"column:fingerprinted"`
	CreatedAt     time.Time `gorm:"column:date_created"`
}

func (Song) TableName() string { return songsTable }

func (s Song) toModel() models.Song {
	return models.Song{
		ID:            s.ID,
		Name:          s.Name,
		Fingerprinted: s.Fingerprinted,
		CreatedAt:     s.CreatedAt,
	}
}

// Fingerprint is the row shape of the fingerprints table. A row is unique on
// all three columns.
type Fingerprint struct {
	Hash   models.Hash `gorm:"column:hash"`
	SongID uint        `gorm:"column:song_id"`
	Offset uint32      `gorm:"column:offset"`
}

func (Fingerprint) TableName() string { return fingerprintsTable }

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS songs (
		song_id       INTEGER PRIMARY KEY AUTOINCREMENT,
		song_name     VARCHAR(250) NOT NULL,
		fingerprinted INTEGER NOT NULL DEFAULT 0,
		date_created  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS fingerprints (
		hash     BLOB NOT NULL,
		song_id  INTEGER NOT NULL REFERENCES songs(song_id) ON DELETE CASCADE,
		"offset" INTEGER NOT NULL,
		UNIQUE (hash, song_id, "offset")
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fingerprints_hash ON fingerprints(hash)`,
	`CREATE INDEX IF NOT EXISTS idx_fingerprints_song ON fingerprints(song_id)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS fingerprints`,
	`DROP TABLE IF EXISTS songs`,
}

// CreateSchema creates the tables and indexes if they do not exist.
func (c *DBClient) CreateSchema(ctx context.Context) error {
	return c.withWriteSession(ctx, "create schema", func(tx *gorm.DB) error {
		return execAll(tx, schemaStatements)
	})
}

// Setup creates the schema and removes songs whose fingerprinting never
// finished, along with their partial fingerprints.
func (c *DBClient) Setup(ctx context.Context) error {
	if err := c.CreateSchema(ctx); err != nil {
		return err
	}
	n, err := c.DeleteUnfingerprintedSongs(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		c.log.Infof("removed %d unfingerprinted songs", n)
	}
	return nil
}

// Empty drops every table and sets the schema up again.
func (c *DBClient) Empty(ctx context.Context) error {
	err := c.withWriteSession(ctx, "empty", func(tx *gorm.DB) error {
		return execAll(tx, dropStatements)
	})
	if err != nil {
		return err
	}
	return c.Setup(ctx)
}

func execAll(tx *gorm.DB, statements []string) error {
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("executing %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

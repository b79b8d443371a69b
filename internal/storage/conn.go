package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/himanishpuri/fpstore/pkg/utils"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Conn is one pooled connection to the database file. It is owned either by
// the pool or by exactly one session.
type Conn struct {
	ID string
	DB *gorm.DB
	db *sql.DB
}

// Ping is the liveness probe run before an idle connection is reused.
func (c *Conn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Conn) Close() error {
	return c.db.Close()
}

// dial opens a connection with a single underlying handle so that a Conn
// maps to one physical SQLite connection.
func (c *DBClient) dial(ctx context.Context) (*Conn, error) {
	dialector := sqlite.Dialector{
		DriverName: driverName,
		DSN:        buildDSN(c.opts.Path, c.opts.BusyTimeout),
	}
	gormConfig := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	conn := &Conn{ID: utils.GenerateUUID(), DB: db, db: sqlDB}
	if c.opts.OnConnect != nil {
		if err := c.opts.OnConnect(db); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("on connect hook: %w", err)
		}
	}

	c.log.Debugf("opened connection %s (%s driver)", utils.ShortID(conn.ID), driverType)
	return conn, nil
}

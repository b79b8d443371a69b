package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// withWriteSession is withSession behind the client's writer gate. SQLite
// admits one writer at a time; queued writers wait on ctx instead of
// failing once the busy timeout runs out.
func (c *DBClient) withWriteSession(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	if c == nil || c.writer == nil {
		return wrapError(op, ErrNilClient)
	}
	if err := c.writer.Acquire(ctx, 1); err != nil {
		return wrapError(op, err)
	}
	defer c.writer.Release(1)
	return c.withSession(ctx, op, fn)
}

// withSession runs fn inside a transaction on a pooled connection.
//
// fn returning nil commits. fn returning an error, or panicking, rolls the
// transaction back; the panic is re-raised afterwards. The connection goes
// back to the pool on every path.
func (c *DBClient) withSession(ctx context.Context, op string, fn func(tx *gorm.DB) error) (err error) {
	if c == nil || c.pool == nil {
		return wrapError(op, ErrNilClient)
	}
	if c.closed.Load() {
		return wrapError(op, ErrClosed)
	}

	conn, err := c.src.Acquire(ctx)
	if err != nil {
		return wrapError(op, err)
	}
	defer c.src.Release(conn)

	tx := conn.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return wrapError(op, fmt.Errorf("%w: begin: %w", ErrTransient, tx.Error))
	}

	done := false
	defer func() {
		if done {
			return
		}
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if rbErr := tx.Rollback().Error; rbErr != nil {
			c.log.Debugf("%s: rollback: %v", op, rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return wrapError(op, err)
	}

	if err := tx.Commit().Error; err != nil {
		return wrapError(op, fmt.Errorf("%w: commit: %w", ErrTransient, err))
	}
	done = true
	return nil
}

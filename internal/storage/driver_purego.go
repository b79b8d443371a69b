//go:build !cgo_sqlite

package storage

import (
	"fmt"
	"net/url"
	"time"
)

// The default build uses the pure-Go driver registered by glebarez/sqlite.
const (
	driverName = "sqlite"
	driverType = "purego"
)

func buildDSN(path string, busyTimeout time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	return path + "?" + q.Encode()
}

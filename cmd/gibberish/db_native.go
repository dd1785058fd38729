//go:build !cgo_sqlite

package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// The scratch database is thrown away after the run, so durability is off.
const scratchDSNOptions = "?_pragma=journal_mode(OFF)&_pragma=synchronous(OFF)"

func initDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite", dataSource+scratchDSNOptions)
}

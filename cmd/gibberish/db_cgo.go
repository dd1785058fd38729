//go:build cgo_sqlite

package main

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// The scratch database is thrown away after the run, so durability is off.
const scratchDSNOptions = "?_journal_mode=OFF&_synchronous=OFF"

func initDB(dataSource string) (*sql.DB, error) {
	return sql.Open("sqlite3", dataSource+scratchDSNOptions)
}

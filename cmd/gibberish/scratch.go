package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
)

// openScratchDB creates an empty database file in dir (or the system temp
// dir) and opens it. The returned cleanup closes the database and removes the
// file.
func openScratchDB(dir string) (*sql.DB, func() error, error) {
	f, err := os.CreateTemp(dir, "gibberish-*.db")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scratch database: %w", err)
	}
	path := f.Name()
	if err = f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, nil, fmt.Errorf("failed to create scratch database: %w", err)
	}

	db, err := initDB(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, nil, fmt.Errorf("failed to open scratch database: %w", err)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		_ = os.Remove(path)
		return nil, nil, fmt.Errorf("failed to open scratch database: %w", err)
	}

	cleanup := func() error {
		closeErr := db.Close()
		removeErr := os.Remove(path)
		if errors.Is(removeErr, os.ErrNotExist) {
			removeErr = nil
		}
		return errors.Join(closeErr, removeErr)
	}
	return db, cleanup, nil
}

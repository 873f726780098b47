package spatial

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/revgeo/internal/geo"
)

const sqliteDriverName = "sqlite3_revgeo"

var registerSQLiteOnce sync.Once

// registerSQLiteDriver registers a sqlite3 driver whose connections carry the
// geodist(lat1, lon1, lat2, lon2) function returning meters.
func registerSQLiteDriver() {
	registerSQLiteOnce.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("geodist", geo.Distance, true)
			},
		})
	})
}

// SQLiteIndex is a point index stored in a SQLite database.
type SQLiteIndex struct {
	*sqlIndex
}

// NewSQLiteIndex opens or creates a SQLite database at dbPath and initializes the places table.
// Parent directories are created if they do not exist.
func NewSQLiteIndex(dbPath, table string) (*SQLiteIndex, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	registerSQLiteDriver()
	db, err := sql.Open(sqliteDriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	idx, err := newSQLIndex(db, table, sqliteDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := idx.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteIndex{sqlIndex: idx}, nil
}

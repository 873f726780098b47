package spatial

import (
	"context"
	"fmt"

	"github.com/hyperjump/revgeo/internal/config"
)

// BackendType names a point index implementation.
type BackendType string

const (
	// BackendSQLite stores places in a local SQLite file with a geodist SQL function.
	BackendSQLite BackendType = "sqlite"
	// BackendBleve stores places in a local Bleve geo-point index.
	BackendBleve BackendType = "bleve"
	// BackendPostgres stores places in a PostgreSQL table.
	BackendPostgres BackendType = "postgres"
)

// New creates the point index backend selected by cfg.Index.Backend.
// Supported types: "sqlite" (default), "bleve", "postgres".
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch BackendType(cfg.Index.Backend) {
	case BackendSQLite, "":
		backend, err = asBackend(NewSQLiteIndex(cfg.Storage.DatabasePath, cfg.Index.Table))
	case BackendBleve:
		backend, err = asBackend(NewBleveIndex(cfg.Storage.BleveIndexPath))
	case BackendPostgres:
		backend, err = asBackend(NewPostgresIndex(ctx, &cfg.Postgres, cfg.Index.Table))
	default:
		return nil, fmt.Errorf("unknown index backend: %s (supported: sqlite, bleve, postgres)", cfg.Index.Backend)
	}
	if err != nil {
		return nil, err
	}
	return backend, nil
}

// asBackend keeps a failed constructor from producing a non-nil interface holding a nil pointer.
func asBackend[T Backend](b T, err error) (Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}

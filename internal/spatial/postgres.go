package spatial

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/hyperjump/revgeo/internal/config"
)

// geodistFunction is the haversine distance in meters, matching geo.Distance.
const geodistFunction = `
CREATE OR REPLACE FUNCTION geodist(lat1 DOUBLE PRECISION, lon1 DOUBLE PRECISION,
                                   lat2 DOUBLE PRECISION, lon2 DOUBLE PRECISION)
RETURNS DOUBLE PRECISION AS $$
	SELECT 2 * 6371008.8 * asin(least(1.0, sqrt(
		power(sin(radians(lat2 - lat1) / 2), 2) +
		cos(radians(lat1)) * cos(radians(lat2)) * power(sin(radians(lon2 - lon1) / 2), 2))))
$$ LANGUAGE sql IMMUTABLE;
`

// PostgresIndex is a point index stored in a PostgreSQL table.
type PostgresIndex struct {
	*sqlIndex
}

// NewPostgresIndex connects to PostgreSQL, creates the geodist function and the places table.
func NewPostgresIndex(ctx context.Context, cfg *config.PostgresConfig, table string) (*PostgresIndex, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	idx, err := newSQLIndex(db, table, postgresDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, geodistFunction); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create geodist function: %w", err)
	}
	if err := idx.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresIndex{sqlIndex: idx}, nil
}

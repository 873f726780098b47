package spatial

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperjump/revgeo/internal/models"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// placeColumns lists the table columns in scan order.
var placeColumns = []string{
	"id",
	models.AttrName,
	models.AttrAlternativeNames,
	models.AttrOSMType,
	models.AttrOSMID,
	models.AttrClass,
	models.AttrType,
	models.AttrLon,
	models.AttrLat,
	models.AttrPlaceRank,
	models.AttrImportance,
	models.AttrStreet,
	models.AttrCity,
	models.AttrCounty,
	models.AttrState,
	models.AttrCountry,
	models.AttrCountryCode,
	models.AttrDisplayName,
	models.AttrWest,
	models.AttrSouth,
	models.AttrEast,
	models.AttrNorth,
	models.AttrWikidata,
	models.AttrWikipedia,
	models.AttrHousenumbers,
}

var realColumns = map[string]bool{
	models.AttrLon: true, models.AttrLat: true, models.AttrImportance: true,
	models.AttrWest: true, models.AttrSouth: true, models.AttrEast: true, models.AttrNorth: true,
}

func placeTargets(p *models.Place) []any {
	return []any{
		&p.ID, &p.Name, &p.AlternativeNames, &p.OSMType, &p.OSMID, &p.Class, &p.Type,
		&p.Lon, &p.Lat, &p.PlaceRank, &p.Importance,
		&p.Street, &p.City, &p.County, &p.State, &p.Country, &p.CountryCode, &p.DisplayName,
		&p.West, &p.South, &p.East, &p.North,
		&p.Wikidata, &p.Wikipedia, &p.Housenumbers,
	}
}

func placeValues(p *models.Place) []any {
	return []any{
		p.ID, p.Name, p.AlternativeNames, p.OSMType, p.OSMID, p.Class, p.Type,
		p.Lon, p.Lat, p.PlaceRank, p.Importance,
		p.Street, p.City, p.County, p.State, p.Country, p.CountryCode, p.DisplayName,
		p.West, p.South, p.East, p.North,
		p.Wikidata, p.Wikipedia, p.Housenumbers,
	}
}

// dialect captures the differences between the SQL backends.
type dialect struct {
	name     string
	realType string
	numbered bool
}

var (
	sqliteDialect   = dialect{name: "sqlite", realType: "REAL"}
	postgresDialect = dialect{name: "postgres", realType: "DOUBLE PRECISION", numbered: true}
)

// rebind rewrites ? placeholders to $n for dialects that need it.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) schema(table string) string {
	cols := make([]string, 0, len(placeColumns))
	for _, c := range placeColumns {
		switch {
		case c == "id":
			cols = append(cols, "id TEXT PRIMARY KEY")
		case c == models.AttrPlaceRank:
			cols = append(cols, c+" INTEGER NOT NULL DEFAULT 0")
		case realColumns[c]:
			cols = append(cols, c+" "+d.realType+" NOT NULL DEFAULT 0")
		default:
			cols = append(cols, c+" TEXT NOT NULL DEFAULT ''")
		}
	}
	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		%[2]s
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_lon_lat ON %[1]s(lon, lat);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_class ON %[1]s(class);
	`, table, strings.Join(cols, ",\n\t\t"))
}

func (d dialect) upsertSQL(table string) string {
	marks := make([]string, len(placeColumns))
	updates := make([]string, 0, len(placeColumns)-1)
	for i, c := range placeColumns {
		marks[i] = "?"
		if c != "id" {
			updates = append(updates, c+" = excluded."+c)
		}
	}
	return d.rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		table, strings.Join(placeColumns, ", "), strings.Join(marks, ", "), strings.Join(updates, ", ")))
}

// nearestSQL builds the bounding box query ordered by distance from the query point.
func (d dialect) nearestSQL(table string, q Query) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(placeColumns, ", "))
	b.WriteString(", geodist(?, ?, lat, lon) AS distance, COUNT(*) OVER () AS total_found FROM ")
	b.WriteString(table)
	b.WriteString(" WHERE lon BETWEEN ? AND ? AND lat BETWEEN ? AND ?")
	args := []any{q.Lat, q.Lon, q.Box.LonMin, q.Box.LonMax, q.Box.LatMin, q.Box.LatMax}
	if q.Class != "" {
		b.WriteString(" AND class = ?")
		args = append(args, q.Class)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 1
	}
	b.WriteString(" ORDER BY distance ASC, id ASC LIMIT ?")
	args = append(args, limit)
	return d.rebind(b.String()), args
}

// sqlIndex is the database/sql point index shared by the sqlite and postgres backends.
type sqlIndex struct {
	db      *sql.DB
	table   string
	dialect dialect
}

func newSQLIndex(db *sql.DB, table string, d dialect) (*sqlIndex, error) {
	if !identifierRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}
	return &sqlIndex{db: db, table: table, dialect: d}, nil
}

func (s *sqlIndex) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.schema(s.table))
	return err
}

// Name returns the backend name.
func (s *sqlIndex) Name() string {
	return s.dialect.name
}

// Connect reserves a dedicated database connection for one request.
func (s *sqlIndex) Connect(ctx context.Context) (Conn, error) {
	c, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s index: %w", s.dialect.name, err)
	}
	return &sqlConn{conn: c, table: s.table, dialect: s.dialect}, nil
}

// IndexPlaces upserts places in a single transaction.
func (s *sqlIndex) IndexPlaces(ctx context.Context, places []models.Place) error {
	if len(places) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.dialect.upsertSQL(s.table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range places {
		if _, err := stmt.ExecContext(ctx, placeValues(&places[i])...); err != nil {
			return fmt.Errorf("failed to index place %s: %w", places[i].ID, err)
		}
	}
	return tx.Commit()
}

// DeletePlaces removes places by id.
func (s *sqlIndex) DeletePlaces(ctx context.Context, ids []string) error {
	query := s.dialect.rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table))
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, query, id); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of indexed places.
func (s *sqlIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&n)
	return n, err
}

// DistinctValues returns up to limit distinct non-empty values of a text attribute, sorted.
func (s *sqlIndex) DistinctValues(ctx context.Context, attr string, limit int) ([]string, error) {
	if !isTextColumn(attr) {
		return nil, fmt.Errorf("attribute %q has no distinct text values", attr)
	}
	query := s.dialect.rebind(fmt.Sprintf(
		"SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s <> '' ORDER BY %[1]s LIMIT ?", attr, s.table))
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Close closes the database.
func (s *sqlIndex) Close() error {
	return s.db.Close()
}

func isTextColumn(attr string) bool {
	if attr == "id" || attr == models.AttrPlaceRank || realColumns[attr] {
		return false
	}
	for _, c := range placeColumns {
		if c == attr {
			return true
		}
	}
	return false
}

type sqlConn struct {
	conn    *sql.Conn
	table   string
	dialect dialect
}

// Query runs one nearest-in-box query. Errors are reported in the outcome.
func (c *sqlConn) Query(ctx context.Context, q Query) Outcome {
	query, args := c.dialect.nearestSQL(c.table, q)
	statement := fmt.Sprintf("%s %v", query, args)

	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return failed(statement, err)
	}
	defer rows.Close()

	out := Outcome{Status: true, Statement: statement, Matches: []*models.PointMatch{}}
	for rows.Next() {
		var (
			p     models.Place
			dist  float64
			total int64
		)
		targets := append(placeTargets(&p), &dist, &total)
		if err := rows.Scan(targets...); err != nil {
			return failed(statement, err)
		}
		d := dist
		out.Matches = append(out.Matches, &models.PointMatch{
			ID:       p.ID,
			Weight:   1,
			Distance: &d,
			Attrs:    p.Attrs(),
		})
		out.TotalFound = int(total)
	}
	if err := rows.Err(); err != nil {
		return failed(statement, err)
	}
	return out
}

// Close returns the connection to the pool.
func (c *sqlConn) Close() error {
	return c.conn.Close()
}

// Package spatial defines the point index consumed by the reverse search and its backends.
package spatial

import (
	"context"

	"github.com/hyperjump/revgeo/internal/geo"
	"github.com/hyperjump/revgeo/internal/models"
)

// Query asks for the places inside Box nearest to (Lon, Lat), optionally restricted to one class.
type Query struct {
	Box   geo.BoundingBox
	Class string
	Limit int
	Lon   float64
	Lat   float64
}

// Outcome is the result of a single query. A failed query is a value with Status false
// and a Message; callers keep going with the remaining queries.
type Outcome struct {
	Status     bool
	Matches    []*models.PointMatch
	TotalFound int
	Message    string
	// Statement is the backend query text, recorded for debug output.
	Statement string
}

// ResultSet converts the outcome into an unbounded result set.
func (o Outcome) ResultSet() *models.ResultSet {
	matches := o.Matches
	if matches == nil {
		matches = []*models.PointMatch{}
	}
	return &models.ResultSet{
		Matches:    matches,
		TotalFound: o.TotalFound,
		StartIndex: 1,
		Status:     o.Status,
		Message:    o.Message,
	}
}

func failed(statement string, err error) Outcome {
	return Outcome{Status: false, Message: err.Error(), Statement: statement, Matches: []*models.PointMatch{}}
}

// Conn is a request scoped connection to the point index.
type Conn interface {
	Query(ctx context.Context, q Query) Outcome
	Close() error
}

// Index hands out request scoped connections.
type Index interface {
	Connect(ctx context.Context) (Conn, error)
}

// Writer stores places in the point index.
type Writer interface {
	IndexPlaces(ctx context.Context, places []models.Place) error
	DeletePlaces(ctx context.Context, ids []string) error
	Count(ctx context.Context) (int64, error)
}

// AttributeSource lists the distinct values of a place attribute.
type AttributeSource interface {
	DistinctValues(ctx context.Context, attr string, limit int) ([]string, error)
}

// Backend is a complete point index implementation.
type Backend interface {
	Index
	Writer
	AttributeSource
	Name() string
	Close() error
}

package search

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/hyperjump/revgeo/internal/geo"
	"github.com/hyperjump/revgeo/internal/models"
	"github.com/hyperjump/revgeo/internal/spatial"
)

// fakeIndex answers queries from an in-memory place list.
type fakeIndex struct {
	places     []models.Place
	connectErr error
	failClass  string

	mu       sync.Mutex
	connects int
	closes   int
	queries  []spatial.Query
}

func (f *fakeIndex) Connect(ctx context.Context) (spatial.Conn, error) {
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	f.mu.Lock()
	f.connects++
	f.mu.Unlock()
	return &fakeConn{index: f}, nil
}

type fakeConn struct {
	index *fakeIndex
}

func (c *fakeConn) Query(ctx context.Context, q spatial.Query) spatial.Outcome {
	f := c.index
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if q.Class != "" && q.Class == f.failClass {
		return spatial.Outcome{Status: false, Message: "unknown class " + q.Class, Statement: "fail"}
	}
	var matches []*models.PointMatch
	for i := range f.places {
		p := f.places[i]
		if !q.Box.Contains(p.Lon, p.Lat) || (q.Class != "" && p.Class != q.Class) {
			continue
		}
		d := geo.Distance(q.Lat, q.Lon, p.Lat, p.Lon)
		matches = append(matches, &models.PointMatch{ID: p.ID, Weight: 1, Distance: &d, Attrs: p.Attrs()})
	}
	sort.SliceStable(matches, func(i, j int) bool { return *matches[i].Distance < *matches[j].Distance })
	total := len(matches)
	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return spatial.Outcome{Status: true, Matches: matches, TotalFound: total, Statement: "box " + q.Box.String()}
}

func (c *fakeConn) Close() error {
	c.index.mu.Lock()
	defer c.index.mu.Unlock()
	c.index.closes++
	return nil
}

var errDown = errors.New("connection refused")

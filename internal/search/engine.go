// Package search provides the adaptive reverse search over the point index.
package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/revgeo/internal/config"
	"github.com/hyperjump/revgeo/internal/geo"
	"github.com/hyperjump/revgeo/internal/models"
	"github.com/hyperjump/revgeo/internal/spatial"
)

// Engine runs reverse searches against a point index.
type Engine struct {
	index  spatial.Index
	config *config.SearchConfig
	logger *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output (iterations, boxes, outcomes).
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a reverse search engine over index.
// Zero search bounds in cfg fall back to the config package defaults.
func NewEngine(index spatial.Index, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	bounded := config.SearchConfig{}
	if cfg != nil {
		bounded = *cfg
	}
	defaults := &config.Config{}
	config.ApplyDefaults(defaults)
	if bounded.InitialDelta <= 0 {
		bounded.InitialDelta = defaults.Search.InitialDelta
	}
	if bounded.MaxDelta <= 0 {
		bounded.MaxDelta = defaults.Search.MaxDelta
	}
	if bounded.MaxIterations <= 0 {
		bounded.MaxIterations = defaults.Search.MaxIterations
	}
	e := &Engine{
		index:  index,
		config: &bounded,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReverseSearch finds the place closest to the query point.
//
// It queries a small box around the point and doubles the box half-width until some
// sub-query returns a match, or until the configured bounds are reached. The returned
// result set always carries the accumulated messages; on success it holds exactly one
// match and the distance to it in meters. The query must already be validated.
func (e *Engine) ReverseSearch(ctx context.Context, q *models.ReverseQuery) (*models.ResultSet, float64, error) {
	requestID := uuid.NewString()
	log := e.logger.With(zap.String("request_id", requestID))

	result := &models.ResultSet{Matches: []*models.PointMatch{}}
	if q.Debug {
		result.Debug = &models.DebugInfo{
			RequestID: requestID,
			Longitude: q.Lon,
			Latitude:  q.Lat,
			Queries:   []string{},
			Results:   []*models.ResultSet{},
		}
	}

	conn, err := e.index.Connect(ctx)
	if err != nil {
		log.Warn("reverse search connection failed", zap.Error(err))
		result.Status = false
		result.Message = err.Error()
		return result, 0, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer closeConn(conn, log)

	// Split boxes may run on a second connection; it is opened on first need.
	var splitConn spatial.Conn
	defer func() {
		if splitConn != nil {
			closeConn(splitConn, log)
		}
	}()

	classes := q.Classes
	if len(classes) == 0 {
		classes = []string{""}
	}

	acc := &models.ResultSet{Matches: []*models.PointMatch{}, Status: true}
	delta := e.config.InitialDelta
	iteration := 0
	for {
		if err := ctx.Err(); err != nil {
			result.Status = false
			result.AppendMessage(err.Error())
			return result, 0, err
		}
		iteration++
		delta *= 2
		if delta > e.config.MaxDelta {
			delta = e.config.MaxDelta
		}
		boxes := geo.Plan(q.Lon, q.Lat, delta)

		if e.config.ParallelSplit && len(boxes) > 1 && splitConn == nil {
			if c, err := e.index.Connect(ctx); err == nil {
				splitConn = c
			} else {
				log.Warn("split connection failed, querying sequentially", zap.Error(err))
			}
		}

		outcomes := e.runBoxes(ctx, conn, splitConn, boxes, classes, q)
		current := &models.ResultSet{Matches: []*models.PointMatch{}, Status: true}
		for _, o := range outcomes {
			sub := o.ResultSet()
			if result.Debug != nil {
				result.Debug.Queries = append(result.Debug.Queries, o.Statement)
				result.Debug.Results = append(result.Debug.Results, sub)
			}
			if !o.Status {
				log.Warn("reverse search query failed", zap.String("statement", o.Statement), zap.String("message", o.Message))
			}
			current = Merge(current, sub)
		}
		acc = Merge(acc, current)

		log.Debug("reverse search iteration",
			zap.Int("iteration", iteration),
			zap.Float64("delta", delta),
			zap.Int("boxes", len(boxes)),
			zap.Int("queries", len(outcomes)),
			zap.Int("matches", len(current.Matches)))

		if len(current.Matches) > 0 {
			break
		}
		if delta >= e.config.MaxDelta || iteration >= e.config.MaxIterations {
			exhausted := &SearchExhaustedError{MaxDelta: delta, Iterations: iteration}
			log.Debug("reverse search exhausted", zap.Error(exhausted))
			result.Status = false
			result.Message = models.JoinMessages(acc.Message, exhausted.Error())
			if result.Debug != nil {
				result.Debug.Iterations = iteration
				result.Debug.Delta = delta
			}
			return result, 0, exhausted
		}
	}

	if result.Debug != nil {
		result.Debug.Matches = acc.Matches
		result.Debug.Iterations = iteration
		result.Debug.Delta = delta
	}

	final, distance, err := Nearest(Merge(result, acc))
	if err != nil {
		result.Status = false
		result.AppendMessage(err.Error())
		return result, 0, err
	}
	if final.Debug != nil {
		d := distance
		final.Debug.Distance = &d
	}
	log.Debug("reverse search done",
		zap.String("id", final.Matches[0].ID),
		zap.Float64("distance", distance),
		zap.Int("iterations", iteration))
	return final, distance, nil
}

// runBoxes issues one query per box and class, boxes outer and classes inner.
// The returned outcomes are always in that order, whether or not the boxes ran concurrently.
func (e *Engine) runBoxes(ctx context.Context, conn, splitConn spatial.Conn, boxes []geo.BoundingBox, classes []string, q *models.ReverseQuery) []spatial.Outcome {
	perBox := make([][]spatial.Outcome, len(boxes))
	run := func(c spatial.Conn, i int) {
		out := make([]spatial.Outcome, 0, len(classes))
		for _, class := range classes {
			out = append(out, c.Query(ctx, spatial.Query{
				Box:   boxes[i],
				Class: class,
				Limit: 1,
				Lon:   q.Lon,
				Lat:   q.Lat,
			}))
		}
		perBox[i] = out
	}

	if splitConn != nil && len(boxes) == 2 {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			run(conn, 0)
		}()
		go func() {
			defer wg.Done()
			run(splitConn, 1)
		}()
		wg.Wait()
	} else {
		for i := range boxes {
			run(conn, i)
		}
	}

	outcomes := make([]spatial.Outcome, 0, len(boxes)*len(classes))
	for _, o := range perBox {
		outcomes = append(outcomes, o...)
	}
	return outcomes
}

func closeConn(c spatial.Conn, log *zap.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close point index connection", zap.Error(err))
	}
}

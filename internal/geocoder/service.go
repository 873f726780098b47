// Package geocoder is the caller-facing reverse geocoding service: it validates input,
// runs the reverse search and shapes the reply.
package geocoder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/revgeo/internal/attrs"
	"github.com/hyperjump/revgeo/internal/format"
	"github.com/hyperjump/revgeo/internal/models"
	"github.com/hyperjump/revgeo/internal/search"
)

// MsgUnexpected is the only message callers see for unexpected failures.
const MsgUnexpected = "Unexpected failure to handle this request. Please, contact sysadmin."

// Reply codes, HTTP style.
const (
	CodeOK          = 200
	CodeBadRequest  = 400
	CodeNotFound    = 404
	CodeInternal    = 500
	CodeUnavailable = 503
)

// Searcher runs a reverse search for a validated query.
type Searcher interface {
	ReverseSearch(ctx context.Context, q *models.ReverseQuery) (*models.ResultSet, float64, error)
}

// Cache stores replies for repeated queries.
type Cache interface {
	Key(q *models.ReverseQuery) string
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Reply is the outcome of one reverse request.
type Reply struct {
	Code     int               `json:"code"`
	Response *format.Response  `json:"result"`
	Distance float64           `json:"distance"`
	Debug    *models.DebugInfo `json:"debug,omitempty"`
	Times    *Times            `json:"debug_times,omitempty"`
	Cached   bool              `json:"cached,omitempty"`
}

// Times records elapsed time since the request started, in debug mode.
type Times struct {
	Prepare time.Duration `json:"prepare"`
	Process time.Duration `json:"process"`
}

// Service answers reverse geocoding requests.
type Service struct {
	searcher Searcher
	catalog  *attrs.Catalog
	cache    Cache
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog rejects class filters not present in catalog.
func WithCatalog(c *attrs.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithCache caches successful non-debug replies.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// NewService creates a service over searcher.
func NewService(searcher Searcher, opts ...Option) *Service {
	s := &Service{searcher: searcher, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reverse parses and validates the textual request, then finds the nearest place.
// classes is a comma separated list of class filters. Reverse never returns nil and
// never exposes internal failures to the caller beyond MsgUnexpected.
func (s *Service) Reverse(ctx context.Context, lonText, latText, classes string, debug bool) (reply *Reply) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("reverse request panicked",
				zap.Any("panic", r),
				zap.String("lon", lonText),
				zap.String("lat", latText),
				zap.Stack("stack"))
			reply = failure(CodeInternal, MsgUnexpected)
		}
	}()

	q, err := models.ParseReverseQuery(lonText, latText, classes, debug)
	if err != nil {
		return s.invalid(err)
	}
	if err := s.catalog.ValidateClasses(q.Classes); err != nil {
		return s.invalid(err)
	}
	var times *Times
	if debug {
		times = &Times{Prepare: time.Since(start)}
	}

	var key string
	if s.cache != nil && !debug {
		key = s.cache.Key(q)
		var cached Reply
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("reverse cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			cached.Cached = true
			return &cached
		}
	}

	rs, distance, err := s.searcher.ReverseSearch(ctx, q)
	reply = &Reply{Response: format.PrepareResponse(rs), Distance: distance, Times: times}
	if debug && rs != nil {
		reply.Debug = rs.Debug
		times.Process = time.Since(start)
	}
	switch {
	case err == nil:
		reply.Code = CodeOK
	case errors.Is(err, search.ErrNotFound):
		reply.Code = CodeNotFound
		s.logger.Debug("reverse found nothing", zap.Stringer("query", q), zap.Error(err))
		return reply
	case errors.Is(err, search.ErrConnection):
		reply.Code = CodeUnavailable
		s.logger.Warn("reverse search unavailable", zap.Stringer("query", q), zap.Error(err))
		return reply
	default:
		s.logger.Error("reverse search failed", zap.Stringer("query", q), zap.Error(err))
		return failure(CodeInternal, MsgUnexpected)
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, reply); err != nil {
			s.logger.Warn("reverse cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return reply
}

func (s *Service) invalid(err error) *Reply {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return failure(CodeBadRequest, verr.Message)
	}
	s.logger.Error("reverse request rejected", zap.Error(err))
	return failure(CodeInternal, MsgUnexpected)
}

func failure(code int, message string) *Reply {
	return &Reply{
		Code:     code,
		Response: &format.Response{Results: []models.Row{}, Message: message},
	}
}

// Err returns the reply message as an error for non-OK replies, or nil.
func (r *Reply) Err() error {
	if r == nil || r.Code == CodeOK {
		return nil
	}
	msg := ""
	if r.Response != nil {
		msg = r.Response.Message
	}
	return fmt.Errorf("reverse failed with code %d: %s", r.Code, msg)
}

// Package attrs holds the distinct attribute values loaded from the point index at startup.
package attrs

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/revgeo/internal/models"
	"github.com/hyperjump/revgeo/internal/spatial"
)

// Catalog is an immutable map from attribute name to its distinct values.
// Attributes with no values or with more than the configured maximum are left out.
type Catalog struct {
	values map[string][]string
	sets   map[string]map[string]struct{}
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	logger *zap.Logger
}

// WithLogger sets a logger for dropped attributes.
func WithLogger(l *zap.Logger) Option {
	return func(o *loadOptions) { o.logger = l }
}

// Load reads the distinct values of each attribute from src.
func Load(ctx context.Context, src spatial.AttributeSource, names []string, maxValues int, opts ...Option) (*Catalog, error) {
	o := &loadOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	c := &Catalog{
		values: make(map[string][]string, len(names)),
		sets:   make(map[string]map[string]struct{}, len(names)),
	}
	for _, name := range names {
		vals, err := src.DistinctValues(ctx, name, maxValues+1)
		if err != nil {
			return nil, fmt.Errorf("failed to load values of %s: %w", name, err)
		}
		if len(vals) == 0 || len(vals) > maxValues {
			o.logger.Debug("attribute dropped from catalog", zap.String("attribute", name), zap.Int("values", len(vals)))
			continue
		}
		set := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			set[v] = struct{}{}
		}
		c.values[name] = append([]string(nil), vals...)
		c.sets[name] = set
	}
	return c, nil
}

// Attributes returns the loaded attribute names, sorted.
func (c *Catalog) Attributes() []string {
	names := make([]string, 0, len(c.values))
	for n := range c.values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Values returns a copy of the values of attr, or nil when attr was not loaded.
func (c *Catalog) Values(attr string) []string {
	if v, ok := c.values[attr]; ok {
		return append([]string(nil), v...)
	}
	return nil
}

// Has reports whether attr was loaded.
func (c *Catalog) Has(attr string) bool {
	_, ok := c.sets[attr]
	return ok
}

// Contains reports whether value is a known value of attr.
func (c *Catalog) Contains(attr, value string) bool {
	_, ok := c.sets[attr][value]
	return ok
}

// ValidateClasses rejects class filters that are not in the index.
// When the class attribute was not loaded every filter is accepted.
func (c *Catalog) ValidateClasses(classes []string) error {
	if c == nil || !c.Has(models.AttrClass) {
		return nil
	}
	for _, cl := range classes {
		if !c.Contains(models.AttrClass, cl) {
			return &models.ValidationError{Message: fmt.Sprintf("Unknown class %q.", cl)}
		}
	}
	return nil
}

package spatial

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/search"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/revgeo/internal/geo"
	"github.com/hyperjump/revgeo/internal/models"
)

const locationField = "location"

// keywordFields are indexed verbatim so they can be filtered on and listed.
var keywordFields = []string{
	models.AttrOSMType,
	models.AttrClass,
	models.AttrType,
	models.AttrCountryCode,
}

// BleveIndex is a point index backed by a Bleve geo-point index.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// NewBleveIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index is opened and reused.
// If you change the index mapping in code, remove the index directory to force a full re-import.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(locationField, bleve.NewGeoPointFieldMapping())
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	for _, f := range keywordFields {
		docMapping.AddFieldMappingsAt(f, keywordFieldMapping)
	}
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(models.AttrName, textFieldMapping)
	docMapping.AddFieldMappingsAt(models.AttrDisplayName, textFieldMapping)
	im.AddDocumentMapping("place", docMapping)
	im.DefaultType = "place"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Name returns the backend name.
func (b *BleveIndex) Name() string {
	return "bleve"
}

// Connect returns a connection to the in-process index. It fails once the index is closed.
func (b *BleveIndex) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("bleve index is closed")
	}
	return &bleveConn{index: b.index}, nil
}

// IndexPlaces indexes places in one batch.
func (b *BleveIndex) IndexPlaces(ctx context.Context, places []models.Place) error {
	batch := b.index.NewBatch()
	for i := range places {
		if err := batch.Index(places[i].ID, placeDocument(&places[i])); err != nil {
			return fmt.Errorf("failed to index place %s: %w", places[i].ID, err)
		}
	}
	return b.index.Batch(batch)
}

// DeletePlaces removes places by id.
func (b *BleveIndex) DeletePlaces(ctx context.Context, ids []string) error {
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return b.index.Batch(batch)
}

// Count returns the number of indexed places.
func (b *BleveIndex) Count(ctx context.Context) (int64, error) {
	n, err := b.index.DocCount()
	return int64(n), err
}

// DistinctValues returns up to limit distinct values of a keyword attribute from the field dictionary.
func (b *BleveIndex) DistinctValues(ctx context.Context, attr string, limit int) ([]string, error) {
	if !isKeywordField(attr) {
		return nil, fmt.Errorf("attribute %q is not a keyword field", attr)
	}
	dict, err := b.index.FieldDict(attr)
	if err != nil {
		return nil, fmt.Errorf("failed to read field dictionary: %w", err)
	}
	defer dict.Close()

	var values []string
	for len(values) < limit {
		entry, err := dict.Next()
		if err != nil || entry == nil {
			break
		}
		if entry.Term != "" {
			values = append(values, entry.Term)
		}
	}
	return values, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

func isKeywordField(attr string) bool {
	for _, f := range keywordFields {
		if f == attr {
			return true
		}
	}
	return false
}

type bleveConn struct {
	index bleve.Index
}

// Query runs a geo bounding box query sorted by distance from the query point.
func (c *bleveConn) Query(ctx context.Context, q Query) Outcome {
	statement := describeBleveQuery(q)
	req, err := buildBleveRequest(q)
	if err != nil {
		return failed(statement, err)
	}
	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return failed(statement, fmt.Errorf("bleve search failed: %w", err))
	}

	out := Outcome{
		Status:     true,
		Statement:  statement,
		TotalFound: int(res.Total),
		Matches:    make([]*models.PointMatch, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		p := placeFromFields(hit.ID, hit.Fields)
		d := geo.Distance(q.Lat, q.Lon, p.Lat, p.Lon)
		out.Matches = append(out.Matches, &models.PointMatch{
			ID:       hit.ID,
			Weight:   1,
			Distance: &d,
			Attrs:    p.Attrs(),
		})
	}
	return out
}

// Close is a no-op; the index outlives its connections.
func (c *bleveConn) Close() error {
	return nil
}

func buildBleveRequest(q Query) (*bleve.SearchRequest, error) {
	box := bleve.NewGeoBoundingBoxQuery(q.Box.LonMin, q.Box.LatMax, q.Box.LonMax, q.Box.LatMin)
	box.SetField(locationField)
	var query blevequery.Query = box
	if q.Class != "" {
		class := bleve.NewTermQuery(q.Class)
		class.SetField(models.AttrClass)
		query = bleve.NewConjunctionQuery(box, class)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 1
	}
	req := bleve.NewSearchRequest(query)
	req.Size = limit
	req.Fields = []string{"*"}
	byDistance, err := search.NewSortGeoDistance(locationField, "m", q.Lon, q.Lat, false)
	if err != nil {
		return nil, fmt.Errorf("invalid distance sort: %w", err)
	}
	req.SortByCustom(search.SortOrder{byDistance, &search.SortDocID{}})
	return req, nil
}

func describeBleveQuery(q Query) string {
	s := fmt.Sprintf("geo_bounding_box(%s, %s) sort=geo_distance(%g, %g) size=%d",
		locationField, q.Box, q.Lon, q.Lat, q.Limit)
	if q.Class != "" {
		s += fmt.Sprintf(" class=%q", q.Class)
	}
	return s
}

func placeDocument(p *models.Place) map[string]interface{} {
	doc := p.Attrs()
	doc[locationField] = map[string]interface{}{"lon": p.Lon, "lat": p.Lat}
	return doc
}

func placeFromFields(id string, fields map[string]interface{}) models.Place {
	str := func(k string) string {
		if v, ok := fields[k].(string); ok {
			return v
		}
		return ""
	}
	num := func(k string) float64 {
		if v, ok := fields[k].(float64); ok {
			return v
		}
		return 0
	}
	return models.Place{
		ID:               id,
		Name:             str(models.AttrName),
		AlternativeNames: str(models.AttrAlternativeNames),
		OSMType:          str(models.AttrOSMType),
		OSMID:            str(models.AttrOSMID),
		Class:            str(models.AttrClass),
		Type:             str(models.AttrType),
		Lon:              num(models.AttrLon),
		Lat:              num(models.AttrLat),
		PlaceRank:        int(num(models.AttrPlaceRank)),
		Importance:       num(models.AttrImportance),
		Street:           str(models.AttrStreet),
		City:             str(models.AttrCity),
		County:           str(models.AttrCounty),
		State:            str(models.AttrState),
		Country:          str(models.AttrCountry),
		CountryCode:      str(models.AttrCountryCode),
		DisplayName:      str(models.AttrDisplayName),
		West:             num(models.AttrWest),
		South:            num(models.AttrSouth),
		East:             num(models.AttrEast),
		North:            num(models.AttrNorth),
		Wikidata:         str(models.AttrWikidata),
		Wikipedia:        str(models.AttrWikipedia),
		Housenumbers:     str(models.AttrHousenumbers),
	}
}

// Package importer loads OSMNames TSV datasets into the point index.
package importer

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/revgeo/internal/models"
	"github.com/hyperjump/revgeo/internal/placeid"
	"github.com/hyperjump/revgeo/internal/spatial"
)

const (
	defaultBatchSize = 1000
	maxLineBytes     = 16 * 1024 * 1024
)

// ErrMissingColumns is returned when a dataset header lacks name, lon or lat.
var ErrMissingColumns = errors.New("dataset header is missing required columns")

// Stats summarizes an import run.
type Stats struct {
	Files    int
	Rows     int
	Imported int
	Skipped  int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Files += other.Files
	s.Rows += other.Rows
	s.Imported += other.Imported
	s.Skipped += other.Skipped
}

// Importer reads dataset files and writes their places to a spatial.Writer in batches.
type Importer struct {
	writer     spatial.Writer
	batchSize  int
	extensions []string
	logger     *zap.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets a logger for import progress and skipped rows.
func WithLogger(l *zap.Logger) ImporterOption {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
		}
	}
}

// WithExtensions restricts ImportPath to files with the given extensions (case-insensitive).
func WithExtensions(exts []string) ImporterOption {
	return func(im *Importer) { im.extensions = exts }
}

// NewImporter creates an importer writing to w. A non-positive batchSize uses 1000.
func NewImporter(w spatial.Writer, batchSize int, opts ...ImporterOption) *Importer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	im := &Importer{
		writer:    w,
		batchSize: batchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportPath imports a single file, or every matching file under a directory.
func (im *Importer) ImportPath(ctx context.Context, path string, recursive bool) (Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Stats{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return im.ImportFile(ctx, path)
	}
	var total Stats
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !MatchExtension(p, im.extensions) {
			return nil
		}
		st, err := im.ImportFile(ctx, p)
		total.Add(st)
		return err
	})
	return total, err
}

// ImportFile imports one TSV file. Gzip compressed files are detected by their magic bytes.
func (im *Importer) ImportFile(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return Stats{}, fmt.Errorf("open gzip dataset: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	im.logger.Info("importing dataset", zap.String("path", path))
	st, err := im.ImportReader(ctx, r)
	st.Files = 1
	if err != nil {
		return st, fmt.Errorf("import %s: %w", path, err)
	}
	im.logger.Info("dataset imported",
		zap.String("path", path),
		zap.Int("rows", st.Rows),
		zap.Int("imported", st.Imported),
		zap.Int("skipped", st.Skipped))
	return st, nil
}

// ImportReader imports tab separated rows from r. The first line is the header.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return st, fmt.Errorf("read header: %w", err)
		}
		return st, nil
	}
	cols, err := parseHeader(sc.Text())
	if err != nil {
		return st, err
	}

	batch := make([]models.Place, 0, im.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := im.writer.IndexPlaces(ctx, batch); err != nil {
			return fmt.Errorf("write batch: %w", err)
		}
		st.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		st.Rows++
		p, err := cols.place(strings.Split(text, "\t"))
		if err != nil {
			st.Skipped++
			im.logger.Debug("skipping dataset row", zap.Int("line", line), zap.Error(err))
			continue
		}
		batch = append(batch, p)
		if len(batch) >= im.batchSize {
			if err := ctx.Err(); err != nil {
				return st, err
			}
			if err := flush(); err != nil {
				return st, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("read line %d: %w", line+1, err)
	}
	if err := flush(); err != nil {
		return st, err
	}
	return st, nil
}

// MatchExtension reports whether path has one of extensions. Empty extensions match everything.
func MatchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// columns maps attribute names to field positions in a row.
type columns map[string]int

func parseHeader(header string) (columns, error) {
	cols := make(columns)
	for i, name := range strings.Split(strings.TrimRight(header, "\r"), "\t") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	var missing []string
	for _, required := range []string{models.AttrName, models.AttrLon, models.AttrLat} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) text(fields []string, attr string) string {
	i, ok := c[attr]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// float parses an optional numeric field; missing or malformed values are zero.
func (c columns) float(fields []string, attr string) float64 {
	v, err := strconv.ParseFloat(c.text(fields, attr), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (c columns) coordinate(fields []string, attr string, limit float64) (float64, error) {
	raw := c.text(fields, attr)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s %q is not numeric", attr, raw)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%s %v out of range", attr, v)
	}
	return v, nil
}

func (c columns) place(fields []string) (models.Place, error) {
	lon, err := c.coordinate(fields, models.AttrLon, 180)
	if err != nil {
		return models.Place{}, err
	}
	lat, err := c.coordinate(fields, models.AttrLat, 90)
	if err != nil {
		return models.Place{}, err
	}
	p := models.Place{
		Name:             c.text(fields, models.AttrName),
		AlternativeNames: c.text(fields, models.AttrAlternativeNames),
		OSMType:          c.text(fields, models.AttrOSMType),
		OSMID:            c.text(fields, models.AttrOSMID),
		Class:            c.text(fields, models.AttrClass),
		Type:             c.text(fields, models.AttrType),
		Lon:              lon,
		Lat:              lat,
		PlaceRank:        int(c.float(fields, models.AttrPlaceRank)),
		Importance:       c.float(fields, models.AttrImportance),
		Street:           c.text(fields, models.AttrStreet),
		City:             c.text(fields, models.AttrCity),
		County:           c.text(fields, models.AttrCounty),
		State:            c.text(fields, models.AttrState),
		Country:          c.text(fields, models.AttrCountry),
		CountryCode:      strings.ToLower(c.text(fields, models.AttrCountryCode)),
		DisplayName:      c.text(fields, models.AttrDisplayName),
		West:             c.float(fields, models.AttrWest),
		South:            c.float(fields, models.AttrSouth),
		East:             c.float(fields, models.AttrEast),
		North:            c.float(fields, models.AttrNorth),
		Wikidata:         c.text(fields, models.AttrWikidata),
		Wikipedia:        c.text(fields, models.AttrWikipedia),
		Housenumbers:     c.text(fields, models.AttrHousenumbers),
	}
	p.ID = placeid.For(p.OSMType, p.OSMID, p.Name, p.Lon, p.Lat)
	return p, nil
}

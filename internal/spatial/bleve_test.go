package spatial

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/revgeo/internal/models"
)

func TestBleveIndex(t *testing.T) {
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	defer func() {
		_ = idx.Close()
	}()
	exerciseBackend(t, idx)
}

func TestBleveIndex_reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.IndexPlaces(context.Background(), samplePlaces()[:1]); err != nil {
		t.Fatal(err)
	}
	_ = idx.Close()

	idx, err = NewBleveIndex(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	if n, _ := idx.Count(context.Background()); n != 1 {
		t.Errorf("Count after reopen = %d, want 1", n)
	}
}

func TestBleveIndex_connectAfterClose(t *testing.T) {
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	_ = idx.Close()
	if _, err := idx.Connect(context.Background()); err == nil {
		t.Error("expected connect error on closed index")
	}
}

func TestBleveIndex_distinctRejectsTextField(t *testing.T) {
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if _, err := idx.DistinctValues(context.Background(), models.AttrName, 10); err == nil {
		t.Error("expected error for analyzed text field")
	}
}

func TestDescribeBleveQuery(t *testing.T) {
	s := describeBleveQuery(Query{Box: pragueBox(1), Class: "place", Limit: 1, Lon: 14.4378, Lat: 50.0755})
	if !strings.Contains(s, "geo_bounding_box") || !strings.Contains(s, `class="place"`) {
		t.Errorf("unexpected description: %s", s)
	}
}

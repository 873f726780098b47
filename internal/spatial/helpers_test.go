package spatial

import (
	"context"
	"testing"

	"github.com/hyperjump/revgeo/internal/geo"
	"github.com/hyperjump/revgeo/internal/models"
)

func samplePlaces() []models.Place {
	return []models.Place{
		{ID: "prague", Name: "Praha", Class: "boundary", Type: "administrative", OSMType: "relation",
			Lon: 14.4378, Lat: 50.0755, City: "Praha", Country: "Czechia", CountryCode: "cz",
			West: 14.22, South: 49.94, East: 14.71, North: 50.18, DisplayName: "Praha, Czechia"},
		{ID: "street", Name: "Wenceslas Square", Class: "highway", Type: "pedestrian", OSMType: "way",
			Lon: 14.44, Lat: 50.08, City: "Praha", Country: "Czechia", CountryCode: "cz"},
		{ID: "brno", Name: "Brno", Class: "boundary", Type: "administrative", OSMType: "relation",
			Lon: 16.6068, Lat: 49.1951, Country: "Czechia", CountryCode: "cz"},
		{ID: "fiji", Name: "Taveuni", Class: "place", Type: "island", OSMType: "way",
			Lon: -179.95, Lat: -16.85, Country: "Fiji", CountryCode: "fj"},
	}
}

func pragueBox(delta float64) geo.BoundingBox {
	return geo.Plan(14.4378, 50.0755, delta)[0]
}

// exerciseBackend runs the shared behavior checks against any backend.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()
	if err := b.IndexPlaces(ctx, samplePlaces()); err != nil {
		t.Fatalf("IndexPlaces: %v", err)
	}
	n, err := b.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}

	conn, err := b.Connect(ctx)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	out := conn.Query(ctx, Query{Box: pragueBox(0.1), Limit: 1, Lon: 14.4378, Lat: 50.0755})
	if !out.Status {
		t.Fatalf("query failed: %s", out.Message)
	}
	if len(out.Matches) != 1 || out.Matches[0].ID != "prague" {
		t.Fatalf("expected prague, got %+v", out.Matches)
	}
	if out.TotalFound != 2 {
		t.Errorf("TotalFound = %d, want 2", out.TotalFound)
	}
	if d := out.Matches[0].Distance; d == nil || *d > 1 {
		t.Errorf("distance = %v, want ~0", d)
	}
	if out.Matches[0].Attrs[models.AttrCountryCode] != "cz" {
		t.Errorf("attrs = %v", out.Matches[0].Attrs)
	}
	if out.Statement == "" {
		t.Error("statement should be recorded")
	}

	out = conn.Query(ctx, Query{Box: pragueBox(0.1), Class: "highway", Limit: 1, Lon: 14.4378, Lat: 50.0755})
	if len(out.Matches) != 1 || out.Matches[0].ID != "street" || out.TotalFound != 1 {
		t.Errorf("class filter: got %+v total=%d", out.Matches, out.TotalFound)
	}

	out = conn.Query(ctx, Query{Box: pragueBox(0.0008), Class: "place", Limit: 1, Lon: 14.4378, Lat: 50.0755})
	if !out.Status || len(out.Matches) != 0 {
		t.Errorf("expected empty successful outcome, got %+v", out)
	}

	west := geo.Plan(179.99, -16.85, 0.1)
	if len(west) != 2 {
		t.Fatalf("expected split boxes, got %v", west)
	}
	out = conn.Query(ctx, Query{Box: west[1], Limit: 1, Lon: 179.99, Lat: -16.85})
	if len(out.Matches) != 1 || out.Matches[0].ID != "fiji" {
		t.Errorf("split box B: got %+v", out.Matches)
	}

	values, err := b.DistinctValues(ctx, models.AttrCountryCode, 10)
	if err != nil {
		t.Fatalf("DistinctValues: %v", err)
	}
	if len(values) != 2 || values[0] != "cz" || values[1] != "fj" {
		t.Errorf("country codes = %v", values)
	}
	values, err = b.DistinctValues(ctx, models.AttrClass, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 1 {
		t.Errorf("limit not honored: %v", values)
	}

	if err := b.DeletePlaces(ctx, []string{"brno"}); err != nil {
		t.Fatalf("DeletePlaces: %v", err)
	}
	if n, _ := b.Count(ctx); n != 3 {
		t.Errorf("Count after delete = %d, want 3", n)
	}
}

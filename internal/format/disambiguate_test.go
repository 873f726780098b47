package format

import (
	"testing"

	"github.com/hyperjump/revgeo/internal/models"
)

func place(name, typ, city, county, state, cc string) models.Row {
	return models.Row{
		models.AttrName:        name,
		models.AttrType:        typ,
		models.AttrCity:        city,
		models.AttrCounty:      county,
		models.AttrState:       state,
		models.AttrCountryCode: cc,
		models.AttrDisplayName: name,
	}
}

func TestDisambiguate(t *testing.T) {
	tests := []struct {
		name string
		rows []models.Row
		want []string
	}{
		{
			name: "single row needs no suffix",
			rows: []models.Row{place("Main Street", "residential", "Springfield", "Sangamon", "Illinois", "us")},
			want: []string{""},
		},
		{
			name: "different cities",
			rows: []models.Row{
				place("Main Street", "residential", "Springfield", "", "", "gb"),
				place("Main Street", "residential", "Shelbyville", "", "", "gb"),
			},
			want: []string{"Springfield", "Shelbyville"},
		},
		{
			name: "us states counted",
			rows: []models.Row{
				place("Springfield", "city", "Springfield", "", "Illinois", "us"),
				place("Springfield", "city", "Springfield", "", "Missouri", "us"),
			},
			want: []string{"Illinois", "Missouri"},
		},
		{
			name: "non-us states ignored",
			rows: []models.Row{
				place("Neustadt", "city", "Neustadt", "", "Bayern", "de"),
				place("Neustadt", "city", "Neustadt", "", "Hessen", "de"),
			},
			want: []string{"", ""},
		},
		{
			name: "county and country code",
			rows: []models.Row{
				place("Paris", "city", "Paris", "Lamar", "Texas", "us"),
				place("Paris", "city", "Paris", "Paris", "Île-de-France", "fr"),
			},
			want: []string{"Lamar, US", "Paris, FR"},
		},
		{
			name: "city equal to name is skipped",
			rows: []models.Row{
				place("Brno", "town", "Brno", "", "", "cz"),
				place("Brno", "village", "Brno-venkov", "", "", "cz"),
			},
			want: []string{"", "Brno-venkov"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Disambiguate(tt.rows)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if s := got[i][KeyNameSuffix]; s != w {
					t.Errorf("row %d name_suffix = %q, want %q", i, s, w)
				}
			}
		})
	}
}

func TestDisambiguate_cityFromDisplayName(t *testing.T) {
	five := place("Elm Street", "residential", "", "", "", "us")
	five[models.AttrDisplayName] = "Elm Street, Springwood, Ohio County, Ohio, United States of America"
	six := place("Elm St", "residential", "", "", "", "us")
	six[models.AttrDisplayName] = "Elm Street, Haddonfield, Camden, Area, Illinois, United States of America"

	got := Disambiguate([]models.Row{five, six})
	if got[0][models.AttrCity] != "Springwood" || got[0][models.AttrState] != "Ohio" ||
		got[0][models.AttrCountry] != "United States of America" {
		t.Errorf("five part split: %v", got[0])
	}
	if got[1][models.AttrCity] != "Haddonfield" || got[1][models.AttrState] != "Illinois" ||
		got[1][models.AttrCounty] != "Illinois" {
		t.Errorf("six part split: %v", got[1])
	}
	// states were empty while counting, so only the derived cities qualify
	if got[0][KeyNameSuffix] != "Springwood" || got[1][KeyNameSuffix] != "Haddonfield" {
		t.Errorf("suffixes = %q, %q", got[0][KeyNameSuffix], got[1][KeyNameSuffix])
	}
	if five[models.AttrCity] != "" {
		t.Error("input row must not be modified")
	}
}

func TestDisambiguate_rowFailureLeavesRowUnchanged(t *testing.T) {
	broken := models.Row{models.AttrName: "No City"}
	ok := place("Main Street", "residential", "Springfield", "", "", "us")
	got := Disambiguate([]models.Row{broken, ok})
	if _, has := got[0][KeyNameSuffix]; has {
		t.Errorf("broken row should be passed through, got %v", got[0])
	}
	if len(got[0]) != 1 {
		t.Errorf("broken row modified: %v", got[0])
	}
	if _, has := got[1][KeyNameSuffix]; !has {
		t.Error("valid row should still get a suffix")
	}
}

func TestDisambiguate_missingDisplayName(t *testing.T) {
	row := models.Row{models.AttrCity: "", models.AttrType: "road", models.AttrName: "x", models.AttrCountryCode: "cz"}
	got := Disambiguate([]models.Row{row})
	if _, has := got[0][KeyNameSuffix]; has {
		t.Errorf("row without display_name should be unchanged, got %v", got[0])
	}
}

func TestDisambiguate_empty(t *testing.T) {
	if got := Disambiguate(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/revgeo/internal/models"
)

var errRowField = errors.New("row field missing or not text")

// countedFields are the fields whose distinct values decide which qualifiers a name needs.
var countedFields = []string{
	models.AttrCountryCode,
	models.AttrCity,
	models.AttrName,
	models.AttrCounty,
	models.AttrState,
}

// Disambiguate returns a copy of rows where each row carries a name_suffix made of the
// qualifiers (city, state, county, country code) that tell it apart from the other rows.
// A row whose fields cannot be read is returned unchanged.
func Disambiguate(rows []models.Row) []models.Row {
	counts := distinctCounts(rows)
	out := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if suffixed, err := withNameSuffix(row, counts); err == nil {
			out = append(out, suffixed)
		} else {
			out = append(out, row)
		}
	}
	return out
}

// distinctCounts counts distinct values per field over the rows that have it.
// State only counts for US rows.
func distinctCounts(rows []models.Row) map[string]int {
	seen := make(map[string]map[string]struct{}, len(countedFields))
	for _, f := range countedFields {
		seen[f] = make(map[string]struct{})
	}
	for _, row := range rows {
		for _, f := range countedFields {
			v, ok := row[f]
			if !ok {
				continue
			}
			if f == models.AttrState && row[models.AttrCountryCode] != "us" {
				continue
			}
			seen[f][fmt.Sprint(v)] = struct{}{}
		}
	}
	counts := make(map[string]int, len(seen))
	for f, values := range seen {
		counts[f] = len(values)
	}
	return counts
}

func withNameSuffix(src models.Row, counts map[string]int) (models.Row, error) {
	row := make(models.Row, len(src)+1)
	for k, v := range src {
		row[k] = v
	}

	city, ok := row[models.AttrCity]
	if !ok {
		return nil, errRowField
	}
	if !truthy(city) {
		if err := fillFromDisplayName(row); err != nil {
			return nil, err
		}
	}

	var suffix []string

	rowType, ok := row[models.AttrType]
	if !ok {
		return nil, errRowField
	}
	if rowType != "city" {
		city, err := text(row, models.AttrCity)
		if err != nil {
			return nil, err
		}
		if city != "" {
			name, ok := row[models.AttrName]
			if !ok {
				return nil, errRowField
			}
			if name != city && (counts[models.AttrCity] > 1 || counts[models.AttrName] > 1) {
				suffix = append(suffix, city)
			}
		}
	}

	countryCode, ok := row[models.AttrCountryCode]
	if !ok {
		return nil, errRowField
	}
	if countryCode == "us" && counts[models.AttrState] > 1 {
		state, err := text(row, models.AttrState)
		if err != nil {
			return nil, err
		}
		if state != "" {
			suffix = append(suffix, state)
		}
	}

	if counts[models.AttrCounty] > 1 {
		county, err := text(row, models.AttrCounty)
		if err != nil {
			return nil, err
		}
		suffix = append(suffix, county)
	}

	if counts[models.AttrCountryCode] > 1 {
		code, err := text(row, models.AttrCountryCode)
		if err != nil {
			return nil, err
		}
		suffix = append(suffix, strings.ToUpper(code))
	}

	row[KeyNameSuffix] = strings.Join(suffix, ", ")
	return row, nil
}

// fillFromDisplayName derives city, state, county and country from a display name of
// five or six ", " separated parts. Only missing or empty fields are filled.
func fillFromDisplayName(row models.Row) error {
	displayName, err := text(row, models.AttrDisplayName)
	if err != nil {
		return err
	}
	parts := strings.Split(displayName, ", ")
	derived := make(map[string]string, 4)
	switch len(parts) {
	case 5:
		derived[models.AttrCity] = parts[1]
		derived[models.AttrState] = parts[3]
		derived[models.AttrCountry] = parts[4]
	case 6:
		derived[models.AttrCity] = parts[1]
		derived[models.AttrState] = parts[4]
		derived[models.AttrCounty] = parts[4]
		derived[models.AttrCountry] = parts[5]
	}
	for field, value := range derived {
		if v, ok := row[field]; !ok || !truthy(v) {
			row[field] = value
		}
	}
	return nil
}

func text(row models.Row, field string) (string, error) {
	v, ok := row[field]
	if !ok {
		return "", fmt.Errorf("%w: %s", errRowField, field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s", errRowField, field)
	}
	return s, nil
}

// truthy reports whether v is a non-empty, non-zero value.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

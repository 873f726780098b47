// Package format turns result sets into caller-facing responses.
package format

import (
	"github.com/hyperjump/revgeo/internal/models"
)

// Response is the caller-facing page of results.
type Response struct {
	Results       []models.Row `json:"results"`
	StartIndex    int          `json:"startIndex"`
	Count         int          `json:"count"`
	TotalResults  int          `json:"totalResults"`
	Message       string       `json:"message,omitempty"`
	NextIndex     *int         `json:"nextIndex,omitempty"`
	PreviousIndex *int         `json:"previousIndex,omitempty"`
}

// Row keys added on top of the place attributes.
const (
	KeyRank        = "rank"
	KeyID          = "id"
	KeyBoundingBox = "boundingbox"
	KeyNameSuffix  = "name_suffix"
)

// PrepareResponse flattens each match into a row, derives paging indexes and
// disambiguates the rows. A nil result set yields an empty response.
func PrepareResponse(rs *models.ResultSet) *Response {
	if rs == nil {
		rs = &models.ResultSet{}
	}
	resp := &Response{
		Results:      make([]models.Row, 0, len(rs.Matches)),
		StartIndex:   rs.StartIndex,
		Count:        rs.Count,
		TotalResults: rs.TotalFound,
		Message:      rs.Message,
	}

	for _, m := range rs.Matches {
		resp.Results = append(resp.Results, matchRow(m))
	}

	if next := rs.StartIndex + rs.Count; next <= rs.TotalFound {
		resp.NextIndex = &next
	}
	if prev := rs.StartIndex - rs.Count; prev >= 0 {
		resp.PreviousIndex = &prev
	}

	resp.Results = Disambiguate(resp.Results)
	return resp
}

func matchRow(m *models.PointMatch) models.Row {
	row := make(models.Row, len(m.Attrs)+3)
	for k, v := range m.Attrs {
		row[k] = v
	}
	row[KeyRank] = m.Weight
	row[KeyID] = m.ID
	if m.Distance != nil {
		row[models.AttrDistance] = *m.Distance
	}
	if _, ok := row[models.AttrWest]; ok {
		row[KeyBoundingBox] = []any{
			row[models.AttrWest], row[models.AttrSouth], row[models.AttrEast], row[models.AttrNorth],
		}
		delete(row, models.AttrWest)
		delete(row, models.AttrSouth)
		delete(row, models.AttrEast)
		delete(row, models.AttrNorth)
	}
	return row
}

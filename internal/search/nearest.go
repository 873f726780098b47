package search

import (
	"fmt"

	"github.com/hyperjump/revgeo/internal/models"
)

// Nearest returns the single-match result set holding the closest match of rs, and its distance.
// Ties keep the first match in rs order. Message and debug info carry over from rs.
func Nearest(rs *models.ResultSet) (*models.ResultSet, float64, error) {
	if rs == nil || len(rs.Matches) == 0 {
		return nil, 0, ErrNoMatches
	}
	var best *models.PointMatch
	for _, m := range rs.Matches {
		if m.Distance == nil {
			return nil, 0, fmt.Errorf("%w: %s", ErrMissingDistance, m.ID)
		}
		if best == nil || *m.Distance < *best.Distance {
			best = m
		}
	}
	return &models.ResultSet{
		Matches:    []*models.PointMatch{best},
		TotalFound: 1,
		Count:      1,
		StartIndex: 1,
		Status:     true,
		Message:    rs.Message,
		Debug:      rs.Debug,
	}, *best.Distance, nil
}

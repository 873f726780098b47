package search

import (
	"sort"

	"github.com/hyperjump/revgeo/internal/models"
)

// Merge combines a and b into a new result set that inherits a's paging fields.
//
// Matches of a come before matches of b. The first occurrence of an id wins and every
// dropped duplicate lowers TotalFound by one, since both inputs counted it. The result is
// ordered by weight descending; equal weights keep their input order. It is truncated to
// a.Count when that is positive. TotalFound is summed and non-empty messages are joined.
func Merge(a, b *models.ResultSet) *models.ResultSet {
	if a == nil {
		a = &models.ResultSet{}
	}
	if b == nil {
		b = &models.ResultSet{}
	}
	out := *a

	seen := make(map[string]struct{}, len(a.Matches)+len(b.Matches))
	matches := make([]*models.PointMatch, 0, len(a.Matches)+len(b.Matches))
	for _, set := range [][]*models.PointMatch{a.Matches, b.Matches} {
		for _, m := range set {
			if _, dup := seen[m.ID]; dup {
				out.TotalFound--
				continue
			}
			seen[m.ID] = struct{}{}
			matches = append(matches, m)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Weight > matches[j].Weight })
	if a.Count > 0 && len(matches) > a.Count {
		matches = matches[:a.Count]
	}

	out.Matches = matches
	out.TotalFound += b.TotalFound
	out.Message = models.JoinMessages(a.Message, b.Message)
	return &out
}

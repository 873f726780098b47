package models

import "strings"

// PointMatch is one candidate place returned by the point index.
// Distance is set only for reverse geocoding queries.
type PointMatch struct {
	ID       string         `json:"id"`
	Weight   int64          `json:"weight"`
	Distance *float64       `json:"distance,omitempty"`
	Attrs    map[string]any `json:"attrs"`
}

// ResultSet is an ordered, paged set of matches with diagnostics.
// TotalFound may exceed len(Matches) when the set was truncated to Count.
// A zero Count means the set is unbounded.
type ResultSet struct {
	Matches    []*PointMatch `json:"matches"`
	TotalFound int           `json:"total_found"`
	Count      int           `json:"count"`
	StartIndex int           `json:"start_index"`
	Status     bool          `json:"status"`
	Message    string        `json:"message,omitempty"`
	Debug      *DebugInfo    `json:"debug,omitempty"`
}

// AppendMessage adds msg to the accumulated message, comma separated.
func (r *ResultSet) AppendMessage(msg string) {
	if msg == "" {
		return
	}
	if r.Message == "" {
		r.Message = msg
		return
	}
	r.Message = r.Message + ", " + msg
}

// IDs returns the match ids in order.
func (r *ResultSet) IDs() []string {
	ids := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		ids[i] = m.ID
	}
	return ids
}

// DebugInfo records every query issued by a reverse search and its raw result.
// It is only populated when debug mode is requested.
type DebugInfo struct {
	RequestID  string        `json:"request_id"`
	Longitude  float64       `json:"longitude"`
	Latitude   float64       `json:"latitude"`
	Queries    []string      `json:"queries"`
	Results    []*ResultSet  `json:"results"`
	Matches    []*PointMatch `json:"matches,omitempty"`
	Iterations int           `json:"iterations"`
	Delta      float64       `json:"delta"`
	Distance   *float64      `json:"distance,omitempty"`
}

// Row is one normalized result record as returned to callers: flattened attributes
// plus rank, id, boundingbox and name_suffix.
type Row map[string]any

// JoinMessages joins the non-empty messages with ", ".
func JoinMessages(msgs ...string) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m != "" {
			parts = append(parts, m)
		}
	}
	return strings.Join(parts, ", ")
}

// Package cli renders revgeo command output.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/revgeo/internal/format"
	"github.com/hyperjump/revgeo/internal/geocoder"
	"github.com/hyperjump/revgeo/internal/models"
	"github.com/hyperjump/revgeo/pkg/utils"
)

// OutputFormat selects how results are printed.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named by s, or an error.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text or json)", s)
}

// WriteReply writes a reverse reply to w in the given format.
func WriteReply(w io.Writer, reply *geocoder.Reply, f OutputFormat) error {
	if f == OutputJSON {
		return writeJSON(w, reply)
	}
	writeReplyText(w, reply)
	return nil
}

func writeReplyText(w io.Writer, reply *geocoder.Reply) {
	resp := reply.Response
	if resp == nil {
		resp = &format.Response{}
	}
	if reply.Code != geocoder.CodeOK {
		fmt.Fprintf(w, "Error (%d): %s\n", reply.Code, resp.Message)
		return
	}
	for _, row := range resp.Results {
		name := Text(row[models.AttrName])
		if suffix := Text(row[format.KeyNameSuffix]); suffix != "" {
			name += " (" + suffix + ")"
		}
		fmt.Fprintf(w, "%s\n", name)
		fmt.Fprintf(w, "  id:       %s\n", Text(row[format.KeyID]))
		if dn := Text(row[models.AttrDisplayName]); dn != "" {
			fmt.Fprintf(w, "  address:  %s\n", utils.Truncate(dn, 120))
		}
		fmt.Fprintf(w, "  class:    %s/%s\n", Text(row[models.AttrClass]), Text(row[models.AttrType]))
		fmt.Fprintf(w, "  location: %s, %s\n", Text(row[models.AttrLon]), Text(row[models.AttrLat]))
	}
	fmt.Fprintf(w, "  distance: %.1f m\n", reply.Distance)
	if resp.Message != "" {
		fmt.Fprintf(w, "  note:     %s\n", resp.Message)
	}
	if reply.Debug != nil {
		fmt.Fprintf(w, "\nrequest %s: %d iterations, delta %g, %d queries\n",
			reply.Debug.RequestID, reply.Debug.Iterations, reply.Debug.Delta, len(reply.Debug.Queries))
		for i, q := range reply.Debug.Queries {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, q)
		}
	}
	if reply.Times != nil {
		fmt.Fprintf(w, "prepare %s, process %s\n", reply.Times.Prepare, reply.Times.Process)
	}
}

// WriteAttributes writes the attribute catalog values.
func WriteAttributes(w io.Writer, values map[string][]string, f OutputFormat) error {
	if f == OutputJSON {
		return writeJSON(w, values)
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s (%d): %s\n", name, len(values[name]), strings.Join(values[name], ", "))
	}
	return nil
}

// Status is the summary printed by the status command.
type Status struct {
	Backend string `json:"backend"`
	Places  int64  `json:"places"`
	Cache   string `json:"cache"`
}

// WriteStatus writes an index status summary.
func WriteStatus(w io.Writer, s Status, f OutputFormat) error {
	if f == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Backend: %s\n", s.Backend)
	fmt.Fprintf(w, "Places:  %d\n", s.Places)
	fmt.Fprintf(w, "Cache:   %s\n", s.Cache)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Text formats a row value for display.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return fmt.Sprintf("%.6f", x)
	default:
		return fmt.Sprint(x)
	}
}

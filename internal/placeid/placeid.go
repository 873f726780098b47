// Package placeid provides deterministic place IDs for imported dataset rows.
package placeid

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// namespace scopes content derived IDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/hyperjump/revgeo/place"))

// FromOSM returns the ID for an OSM object, e.g. "relation" 435514 becomes "r435514".
// It returns "" when the type or id is missing.
func FromOSM(osmType, osmID string) string {
	osmType = strings.ToLower(strings.TrimSpace(osmType))
	osmID = strings.TrimSpace(osmID)
	if osmType == "" || osmID == "" {
		return ""
	}
	return osmType[:1] + osmID
}

// FromContent returns a name based UUID for rows without an OSM reference.
// Same name and coordinates always yield the same ID.
func FromContent(name string, lon, lat float64) string {
	key := name + "|" + strconv.FormatFloat(lon, 'f', 7, 64) + "|" + strconv.FormatFloat(lat, 'f', 7, 64)
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// For returns FromOSM when possible and FromContent otherwise.
func For(osmType, osmID, name string, lon, lat float64) string {
	if id := FromOSM(osmType, osmID); id != "" {
		return id
	}
	return FromContent(name, lon, lat)
}

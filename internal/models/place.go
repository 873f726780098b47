// Package models defines core data structures for places, reverse queries, and result sets.
package models

// Attribute names shared by the index backends, the response formatter and the disambiguator.
const (
	AttrName             = "name"
	AttrAlternativeNames = "alternative_names"
	AttrOSMType          = "osm_type"
	AttrOSMID            = "osm_id"
	AttrClass            = "class"
	AttrType             = "type"
	AttrLon              = "lon"
	AttrLat              = "lat"
	AttrPlaceRank        = "place_rank"
	AttrImportance       = "importance"
	AttrStreet           = "street"
	AttrCity             = "city"
	AttrCounty           = "county"
	AttrState            = "state"
	AttrCountry          = "country"
	AttrCountryCode      = "country_code"
	AttrDisplayName      = "display_name"
	AttrWest             = "west"
	AttrSouth            = "south"
	AttrEast             = "east"
	AttrNorth            = "north"
	AttrWikidata         = "wikidata"
	AttrWikipedia        = "wikipedia"
	AttrHousenumbers     = "housenumbers"
	AttrDistance         = "distance"
)

// Place is one record of the point index, as imported from an OSMNames dataset.
type Place struct {
	ID               string  `json:"id" db:"id"`
	Name             string  `json:"name" db:"name"`
	AlternativeNames string  `json:"alternative_names" db:"alternative_names"`
	OSMType          string  `json:"osm_type" db:"osm_type"`
	OSMID            string  `json:"osm_id" db:"osm_id"`
	Class            string  `json:"class" db:"class"`
	Type             string  `json:"type" db:"type"`
	Lon              float64 `json:"lon" db:"lon"`
	Lat              float64 `json:"lat" db:"lat"`
	PlaceRank        int     `json:"place_rank" db:"place_rank"`
	Importance       float64 `json:"importance" db:"importance"`
	Street           string  `json:"street" db:"street"`
	City             string  `json:"city" db:"city"`
	County           string  `json:"county" db:"county"`
	State            string  `json:"state" db:"state"`
	Country          string  `json:"country" db:"country"`
	CountryCode      string  `json:"country_code" db:"country_code"`
	DisplayName      string  `json:"display_name" db:"display_name"`
	West             float64 `json:"west" db:"west"`
	South            float64 `json:"south" db:"south"`
	East             float64 `json:"east" db:"east"`
	North            float64 `json:"north" db:"north"`
	Wikidata         string  `json:"wikidata" db:"wikidata"`
	Wikipedia        string  `json:"wikipedia" db:"wikipedia"`
	Housenumbers     string  `json:"housenumbers" db:"housenumbers"`
}

// Attrs returns the place as an attribute map keyed by the Attr* names. The id is not included.
func (p *Place) Attrs() map[string]any {
	return map[string]any{
		AttrName:             p.Name,
		AttrAlternativeNames: p.AlternativeNames,
		AttrOSMType:          p.OSMType,
		AttrOSMID:            p.OSMID,
		AttrClass:            p.Class,
		AttrType:             p.Type,
		AttrLon:              p.Lon,
		AttrLat:              p.Lat,
		AttrPlaceRank:        p.PlaceRank,
		AttrImportance:       p.Importance,
		AttrStreet:           p.Street,
		AttrCity:             p.City,
		AttrCounty:           p.County,
		AttrState:            p.State,
		AttrCountry:          p.Country,
		AttrCountryCode:      p.CountryCode,
		AttrDisplayName:      p.DisplayName,
		AttrWest:             p.West,
		AttrSouth:            p.South,
		AttrEast:             p.East,
		AttrNorth:            p.North,
		AttrWikidata:         p.Wikidata,
		AttrWikipedia:        p.Wikipedia,
		AttrHousenumbers:     p.Housenumbers,
	}
}

// Package pipeline turns free-text geospatial queries into executable
// catalog searches: intent classification, entity extraction, query
// assembly, tile ranking, and narrative composition.
package pipeline

import (
	"errors"
	"time"

	"github.com/skylens/skylens/internal/catalog"
	"github.com/skylens/skylens/internal/geocode"
	"github.com/skylens/skylens/internal/geom"
	"github.com/skylens/skylens/internal/registry"
)

// ErrEmptyQuery is returned when the query text is blank. This is the only
// input condition that surfaces as an error; everything downstream degrades
// to defaults instead.
var ErrEmptyQuery = errors.New("pipeline: empty query text")

// Turn is one prior conversation turn, oldest first.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryContext is the immutable per-request input.
type QueryContext struct {
	// Text is the raw query string. Required.
	Text string

	// History holds prior turn summaries, oldest first. Optional.
	History []Turn

	// PriorLocation carries the previously resolved location for
	// follow-up turns ("show me the same area in winter"). Optional.
	PriorLocation *geocode.LocationEntity

	// PriorCollections carries the previously selected collection ids
	// for follow-up turns. Optional.
	PriorCollections []string
}

// Intent is the classified purpose of a query.
type Intent string

// Query intents.
const (
	IntentVisualization Intent = "visualization"
	IntentInformational Intent = "informational"
	IntentHybrid        Intent = "hybrid"
	IntentAnalysis      Intent = "analysis"
)

// Valid reports whether the intent is one of the known values.
func (i Intent) Valid() bool {
	switch i {
	case IntentVisualization, IntentInformational, IntentHybrid, IntentAnalysis:
		return true
	}
	return false
}

// IntentResult is the classifier output.
type IntentResult struct {
	// Intent is the classified query purpose.
	Intent Intent `json:"intent"`

	// Confidence in [0, 1]. Zero means the classifier fell all the way
	// through to the last-resort default.
	Confidence float64 `json:"confidence"`

	// NeedsCatalogData is true when the request should run a catalog
	// search.
	NeedsCatalogData bool `json:"needsCatalogData"`

	// NeedsNarrative is true when the request warrants a full
	// explanatory narrative rather than a short imagery summary.
	NeedsNarrative bool `json:"needsNarrative"`
}

// TemporalRange is a closed ISO-8601 interval.
type TemporalRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Source names the cue that produced the range: "year-month",
	// "year", "season", "relative", or "default".
	Source string `json:"source"`
}

// Temporal range sources.
const (
	TemporalSourceYearMonth = "year-month"
	TemporalSourceYear      = "year"
	TemporalSourceSeason    = "season"
	TemporalSourceRelative  = "relative"
	TemporalSourceDefault   = "default"
)

// CloudFilter is an advised cloud-cover ceiling for optical collections.
type CloudFilter struct {
	// MaxPercent is the ceiling in percent.
	MaxPercent float64 `json:"maxPercent"`

	// Reason names what drove the choice: "precision-request" or
	// "collection-default".
	Reason string `json:"reason"`
}

// Cloud filter reasons.
const (
	FilterReasonPrecision = "precision-request"
	FilterReasonDefault   = "collection-default"
)

// State is a query-assembly state machine position.
type State string

// Assembly states, in order.
const (
	StateInit                State = "init"
	StateLocationResolved    State = "location_resolved"
	StateTemporalResolved    State = "temporal_resolved"
	StateCollectionsResolved State = "collections_resolved"
	StateFilterResolved      State = "filter_resolved"
	StateAssembled           State = "assembled"
)

// FieldOrigin records whether an assembled query field came from
// extraction or from a documented default.
type FieldOrigin string

// Field origins.
const (
	OriginExtracted FieldOrigin = "extracted"
	OriginDefaulted FieldOrigin = "defaulted"
)

// Provenance maps assembled query fields ("location", "temporal",
// "collections", "cloudFilter") to their origin.
type Provenance map[string]FieldOrigin

// Defaulted returns the fields that fell back to defaults, sorted order
// not guaranteed.
func (p Provenance) Defaulted() []string {
	var out []string
	for field, origin := range p {
		if origin == OriginDefaulted {
			out = append(out, field)
		}
	}
	return out
}

// GlobalBBox is the worldwide fallback extent used when a location cannot
// be resolved. Latitude is clipped to the usual web-map range.
var GlobalBBox = geom.BBox{West: -180, South: -85, East: 180, North: 85}

// AssembledQuery is the fully assembled catalog request plus everything
// the caller needs to explain how it was built.
type AssembledQuery struct {
	// State is the final state machine position, always StateAssembled
	// for a query returned by the orchestrator.
	State State `json:"state"`

	// Location is the resolved location, nil when resolution failed and
	// the global extent was substituted.
	Location *geocode.LocationEntity `json:"location,omitempty"`

	// Temporal is the resolved acquisition window.
	Temporal TemporalRange `json:"temporal"`

	// Selection is the chosen collection set with registry metadata.
	Selection registry.Selection `json:"selection"`

	// Filter is the advised cloud-cover ceiling, nil when no optical
	// collection was selected.
	Filter *CloudFilter `json:"filter,omitempty"`

	// BBox is the spatial extent actually searched.
	BBox geom.BBox `json:"bbox"`

	// Provenance tags each field as extracted or defaulted.
	Provenance Provenance `json:"provenance"`

	// Notes are user-visible degradation messages ("searched globally
	// because ... could not be resolved").
	Notes []string `json:"notes,omitempty"`
}

// CatalogQuery renders the assembled query as a catalog search request for
// the given collection ids.
func (q *AssembledQuery) CatalogQuery(collections []string, cloudMax *float64) catalog.Query {
	return catalog.Query{
		Collections:   collections,
		BBox:          q.BBox,
		Start:         q.Temporal.Start,
		End:           q.Temporal.End,
		CloudCoverMax: cloudMax,
		Limit:         catalog.DefaultLimit,
	}
}

// Rationale explains why a tile was ranked where it was.
type Rationale struct {
	// GSD is the native resolution of the owning collection in meters
	// per pixel, 0 when unknown.
	GSD float64 `json:"gsd,omitempty"`

	// Coverage is the fraction of the requested extent the tile covers.
	Coverage float64 `json:"coverage"`

	// ConsistentDate is true when the tile shares the dominant
	// acquisition date of the selected set.
	ConsistentDate bool `json:"consistentDate"`

	// RecencyRank is the tile's 1-based recency position among the
	// candidates (1 = newest).
	RecencyRank int `json:"recencyRank"`
}

// RankedItem is one catalog item chosen for display.
type RankedItem struct {
	catalog.Item

	Rationale Rationale `json:"rationale"`
}

// TileSelection is the ordered display subset of the search results.
type TileSelection struct {
	// Items is display order, best first, never longer than the query
	// limit.
	Items []RankedItem `json:"items"`

	// Considered is how many candidates went into ranking.
	Considered int `json:"considered"`

	// Filtered is how many candidates the cloud ceiling removed.
	Filtered int `json:"filtered"`
}

// Result is the pipeline output for one query.
type Result struct {
	// Intent is the classification outcome.
	Intent IntentResult `json:"intent"`

	// Query is the assembled catalog query, nil for purely
	// informational requests that skip catalog search.
	Query *AssembledQuery `json:"query,omitempty"`

	// Tiles are the ranked display items.
	Tiles TileSelection `json:"tiles"`

	// Narrative is the natural-language summary of the response.
	Narrative string `json:"narrative"`
}

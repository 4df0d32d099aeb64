package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/skylens/skylens/internal/geom"
)

// DefaultLimit caps how many items a single search returns. Display
// surfaces show at most a dozen tiles per response.
const DefaultLimit = 12

// Sentinel errors returned by catalog operations.
var (
	// ErrCollectionNotFound is returned when a collection id is unknown
	// to the catalog.
	ErrCollectionNotFound = errors.New("catalog: collection not found")

	// ErrUnavailable is returned when the catalog cannot be reached.
	ErrUnavailable = errors.New("catalog: service unavailable")
)

// Query is one catalog search request.
type Query struct {
	// Collections to search, priority order. Required.
	Collections []string

	// BBox is the spatial extent in WGS84. Required.
	BBox geom.BBox

	// Start and End bound the acquisition window, inclusive. Required.
	Start time.Time
	End   time.Time

	// CloudCoverMax filters items to at most this cloud-cover percent.
	// Nil disables the filter. Only meaningful for optical collections;
	// items without a cloud-cover property would be dropped by it.
	CloudCoverMax *float64

	// Limit caps returned items. Zero means DefaultLimit.
	Limit int
}

// Validate reports whether the query is well-formed.
func (q Query) Validate() error {
	if len(q.Collections) == 0 {
		return fmt.Errorf("query has no collections")
	}
	if err := q.BBox.Validate(); err != nil {
		return fmt.Errorf("query bbox: %w", err)
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return fmt.Errorf("query time window is unbounded")
	}
	if q.End.Before(q.Start) {
		return fmt.Errorf("query time window ends before it starts")
	}
	return nil
}

// Asset is one downloadable or renderable product attached to an item.
type Asset struct {
	Href  string   `json:"href"`
	Title string   `json:"title,omitempty"`
	Type  string   `json:"type,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Item is one catalog scene returned by a search.
type Item struct {
	// ID is the catalog item identifier, unique within its collection.
	ID string `json:"id"`

	// Collection is the collection the item belongs to.
	Collection string `json:"collection"`

	// Datetime is the acquisition timestamp.
	Datetime time.Time `json:"datetime"`

	// BBox is the item footprint in WGS84.
	BBox geom.BBox `json:"bbox"`

	// CloudCover is the scene cloud-cover percent. Nil when the
	// collection does not report one (radar, elevation, thermal).
	CloudCover *float64 `json:"cloudCover,omitempty"`

	// Assets holds the item's products keyed by asset name.
	Assets map[string]Asset `json:"assets,omitempty"`
}

// Thumbnail returns the href of the item's preview asset, if any.
func (it Item) Thumbnail() string {
	for _, key := range []string{"thumbnail", "rendered_preview", "preview"} {
		if a, ok := it.Assets[key]; ok && a.Href != "" {
			return a.Href
		}
	}
	return ""
}

// Coverage returns the fraction of the query extent the item footprint
// covers, in [0, 1].
func (it Item) Coverage(query geom.BBox) float64 {
	return it.BBox.CoverageOf(query)
}

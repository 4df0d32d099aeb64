// Package geocode resolves free-text place names to bounding boxes using a
// cascade of geocoding providers backed by a TTL+LRU cache.
package geocode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skylens/skylens/internal/geom"
)

// LocationType categorizes a resolved place and drives bounding-box sizing.
type LocationType string

// Location types.
const (
	TypeCity       LocationType = "city"
	TypeRegion     LocationType = "region"
	TypeCountry    LocationType = "country"
	TypeLandmark   LocationType = "landmark"
	TypeCoordinate LocationType = "coordinate"
)

// Buffer returns the buffer in degrees applied around point results of
// this type. Cities get a tight extent, countries a wide one.
func (t LocationType) Buffer() float64 {
	switch t {
	case TypeRegion:
		return 1.0
	case TypeCountry:
		return 5.0
	case TypeLandmark, TypeCoordinate:
		return 0.05
	default:
		return 0.05
	}
}

// MaxSpan returns the largest usable span in degrees for this type.
// Provider responses wider than this are clamped around their center.
func (t LocationType) MaxSpan() float64 {
	switch t {
	case TypeRegion:
		return 15.0
	case TypeCountry:
		return 60.0
	default:
		return 2.0
	}
}

// Resolution sources, in cascade order.
const (
	SourceCache     = "cache"
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
	SourceTertiary  = "tertiary"
	SourceInference = "inference"
)

// LocationEntity is a resolved place name.
type LocationEntity struct {
	// Name is the formatted place name as returned by the resolver.
	Name string `json:"name"`

	// Type categorizes the place.
	Type LocationType `json:"type"`

	// BBox is the resolved extent. Always satisfies geom.BBox.Validate.
	BBox geom.BBox `json:"bbox"`

	// Confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Source identifies the tier that produced the result.
	Source string `json:"source"`
}

// Predefined errors for geocoding.
var (
	// ErrNotFound is returned by a tier that has no result for the name.
	ErrNotFound = errors.New("location not found")

	// ErrInvalidGeometry is returned when a tier produced a bounding box
	// violating the WGS84 invariants.
	ErrInvalidGeometry = errors.New("invalid geometry from provider")
)

// TierAttempt records one failed cascade tier for diagnostics.
type TierAttempt struct {
	Tier   string `json:"tier"`
	Reason string `json:"reason"`
}

// ResolutionFailure is returned when every cascade tier has been exhausted.
// It is recovered by the orchestrator with the global default extent, never
// surfaced as a pipeline abort.
type ResolutionFailure struct {
	// Name is the place name that could not be resolved.
	Name string `json:"name"`

	// Attempts lists every tier tried, in cascade order.
	Attempts []TierAttempt `json:"attempts"`
}

// Error implements the error interface.
func (f *ResolutionFailure) Error() string {
	tiers := make([]string, 0, len(f.Attempts))
	for _, a := range f.Attempts {
		tiers = append(tiers, a.Tier)
	}
	return fmt.Sprintf("could not resolve %q after %d tiers (%s)",
		f.Name, len(f.Attempts), strings.Join(tiers, ", "))
}

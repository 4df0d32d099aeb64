package geocode

import "context"

// Geocoder resolves a place name to a location entity. Implementations
// return ErrNotFound when the name has no match and wrap transport errors
// so the resolver can advance to the next tier.
type Geocoder interface {
	// Name identifies the provider for logging and health tracking.
	Name() string

	// Geocode resolves name to a location. The hint, when non-empty,
	// narrows the expected place type.
	Geocode(ctx context.Context, name string, hint LocationType) (*LocationEntity, error)
}

package geocode

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTierTimeout bounds each cascade tier.
const DefaultTierTimeout = 5 * time.Second

// Tier is one stage of the resolution cascade.
type Tier struct {
	// Source tags results produced by this tier (primary, secondary, ...).
	Source string

	// Geocoder performs the resolution.
	Geocoder Geocoder

	// Timeout bounds this tier's call (default: DefaultTierTimeout).
	Timeout time.Duration
}

// ResolverConfig holds configuration for the cascading resolver.
type ResolverConfig struct {
	// Cache is consulted before any tier and written through on success
	// (required).
	Cache *Cache

	// Tiers are evaluated in order; the first success wins.
	Tiers []Tier

	// Logger for resolver operations.
	Logger zerolog.Logger
}

// Resolver resolves place names through the cache and an ordered cascade
// of geocoding tiers. A tier timeout or invalid geometry advances the
// cascade instead of failing the resolution.
type Resolver struct {
	cache  *Cache
	tiers  []Tier
	logger zerolog.Logger
}

// NewResolver creates a cascading resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	tiers := make([]Tier, len(cfg.Tiers))
	copy(tiers, cfg.Tiers)
	for i := range tiers {
		if tiers[i].Timeout == 0 {
			tiers[i].Timeout = DefaultTierTimeout
		}
	}

	return &Resolver{
		cache:  cfg.Cache,
		tiers:  tiers,
		logger: cfg.Logger,
	}
}

// Resolve resolves a place name to a location entity. On success the
// result is written through to the cache. When every tier fails the
// returned error is a *ResolutionFailure carrying per-tier reasons.
func (r *Resolver) Resolve(ctx context.Context, name string, hint LocationType) (*LocationEntity, error) {
	if cached, ok := r.cache.Get(name); ok {
		r.logger.Debug().
			Str("location", name).
			Msg("location cache hit")
		hit := *cached
		hit.Source = SourceCache
		return &hit, nil
	}

	failure := &ResolutionFailure{Name: name}

	for _, tier := range r.tiers {
		loc, err := r.resolveTier(ctx, tier, name, hint)
		if err != nil {
			r.logger.Debug().
				Err(err).
				Str("location", name).
				Str("tier", tier.Source).
				Str("provider", tier.Geocoder.Name()).
				Msg("resolution tier failed, advancing cascade")
			failure.Attempts = append(failure.Attempts, TierAttempt{
				Tier:   tier.Source,
				Reason: err.Error(),
			})
			continue
		}

		loc.Source = tier.Source
		r.cache.Put(name, loc)

		r.logger.Info().
			Str("location", name).
			Str("tier", tier.Source).
			Str("resolved_name", loc.Name).
			Float64("confidence", loc.Confidence).
			Msg("location resolved")

		return loc, nil
	}

	r.logger.Warn().
		Str("location", name).
		Int("tiers_attempted", len(failure.Attempts)).
		Msg("location resolution exhausted all tiers")

	return nil, failure
}

// resolveTier runs one tier under its timeout and validates the result
// against the coordinate invariants before accepting it.
func (r *Resolver) resolveTier(ctx context.Context, tier Tier, name string, hint LocationType) (*LocationEntity, error) {
	tierCtx, cancel := context.WithTimeout(ctx, tier.Timeout)
	defer cancel()

	loc, err := tier.Geocoder.Geocode(tierCtx, name, hint)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		return nil, ErrNotFound
	}

	if err := loc.BBox.Validate(); err != nil {
		return nil, ErrInvalidGeometry
	}

	// Normalize degenerate extents to a usable size for the place type.
	t := loc.Type
	if t == "" {
		t = hint
	}
	if t == "" {
		t = TypeCity
	}
	loc.Type = t
	loc.BBox = loc.BBox.ExpandToSpan(t.Buffer() * 2).ClampToSpan(t.MaxSpan())

	return loc, nil
}

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/geocode"
	"github.com/skylens/skylens/internal/registry"
)

// locationExtractor extracts a place name and type hint from query text.
type locationExtractor interface {
	Extract(ctx context.Context, text string) (string, geocode.LocationType, bool)
}

// locationResolver resolves a place name to a location entity.
type locationResolver interface {
	Resolve(ctx context.Context, name string, hint geocode.LocationType) (*geocode.LocationEntity, error)
}

// collectionSelector matches query text against the collection registry.
type collectionSelector interface {
	Select(text string) registry.Selection
	Describe(ids []string) []registry.SelectedCollection
}

// OrchestratorConfig holds the orchestrator's collaborators.
type OrchestratorConfig struct {
	// Extractor pulls the place name out of the query text. Required.
	Extractor locationExtractor

	// Resolver resolves place names to bounding boxes. Required.
	Resolver locationResolver

	// Selector matches text to collections. Required.
	Selector collectionSelector

	// Now supplies the temporal reference time (optional, defaults to
	// time.Now).
	Now func() time.Time

	// Logger for assembly operations.
	Logger zerolog.Logger
}

// Orchestrator drives query assembly through its stages. Every stage is
// failure-tolerant: a stage that cannot produce a value substitutes a
// documented default and assembly always completes.
type Orchestrator struct {
	extractor locationExtractor
	resolver  locationResolver
	selector  collectionSelector
	now       func() time.Time
	logger    zerolog.Logger
}

// NewOrchestrator creates a query orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		extractor: cfg.Extractor,
		resolver:  cfg.Resolver,
		selector:  cfg.Selector,
		now:       now,
		logger:    cfg.Logger,
	}
}

// Assemble builds the catalog query for the request. The location,
// temporal, and collection stages have no data dependency and run
// concurrently; cloud-filter advice depends on the selected collections and
// runs after the join. Assemble never fails.
func (o *Orchestrator) Assemble(ctx context.Context, qc QueryContext) *AssembledQuery {
	q := &AssembledQuery{
		State:      StateInit,
		Provenance: make(Provenance, 4),
	}

	var (
		wg       sync.WaitGroup
		location *geocode.LocationEntity
		locNote  string
		temporal TemporalRange
		sel      registry.Selection
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		location, locNote = o.resolveLocation(ctx, qc)
	}()
	go func() {
		defer wg.Done()
		temporal = TranslateTemporal(qc.Text, o.now())
	}()
	go func() {
		defer wg.Done()
		sel = o.selectCollections(qc)
	}()
	wg.Wait()

	// Location stage.
	if location != nil {
		q.Location = location
		q.BBox = location.BBox
		q.Provenance["location"] = OriginExtracted
	} else {
		q.BBox = GlobalBBox
		q.Provenance["location"] = OriginDefaulted
		if locNote != "" {
			q.Notes = append(q.Notes, locNote)
		}
	}
	q.State = StateLocationResolved

	// Temporal stage.
	q.Temporal = temporal
	if temporal.Source == TemporalSourceDefault {
		q.Provenance["temporal"] = OriginDefaulted
	} else {
		q.Provenance["temporal"] = OriginExtracted
	}
	q.State = StateTemporalResolved

	// Collection stage.
	q.Selection = sel
	if sel.Defaulted {
		q.Provenance["collections"] = OriginDefaulted
	} else {
		q.Provenance["collections"] = OriginExtracted
	}
	q.State = StateCollectionsResolved

	// Filter stage depends on the selected collections.
	q.Filter = AdviseCloudFilter(qc.Text, q.Selection)
	if q.Filter != nil && q.Filter.Reason == FilterReasonPrecision {
		q.Provenance["cloudFilter"] = OriginExtracted
	} else {
		q.Provenance["cloudFilter"] = OriginDefaulted
	}
	q.State = StateFilterResolved

	q.State = StateAssembled

	o.logger.Debug().
		Strs("collections", q.Selection.IDs()).
		Str("temporal_source", q.Temporal.Source).
		Bool("location_defaulted", q.Location == nil).
		Msg("query assembled")

	return q
}

// resolveLocation runs extraction then resolution. Returns a nil location
// and a user-facing note when the query must fall back to the global
// extent.
func (o *Orchestrator) resolveLocation(ctx context.Context, qc QueryContext) (*geocode.LocationEntity, string) {
	name, hint, found := o.extractor.Extract(ctx, qc.Text)
	if !found {
		if qc.PriorLocation != nil {
			// Follow-up turn: keep looking at the same place.
			prior := *qc.PriorLocation
			return &prior, ""
		}
		return nil, "No location was named, so the search covers the whole globe."
	}

	loc, err := o.resolver.Resolve(ctx, name, hint)
	if err != nil {
		o.logger.Info().Err(err).Str("location", name).Msg("location resolution exhausted all tiers")
		return nil, fmt.Sprintf("The location %q could not be resolved, so the search covers the whole globe.", name)
	}
	return loc, ""
}

// selectCollections matches text to the registry, falling back to any
// previously selected collections on a follow-up turn with no new match.
func (o *Orchestrator) selectCollections(qc QueryContext) registry.Selection {
	sel := o.selector.Select(qc.Text)
	if sel.Defaulted && len(qc.PriorCollections) > 0 {
		if prior := o.selector.Describe(qc.PriorCollections); len(prior) > 0 {
			if len(prior) > registry.MaxCollections {
				prior = prior[:registry.MaxCollections]
			}
			return registry.Selection{Collections: prior}
		}
	}
	return sel
}

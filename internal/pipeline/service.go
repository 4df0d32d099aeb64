package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/catalog"
)

// DefaultPipelineTimeout bounds one full query end to end. Stages that have
// not completed when it expires fall back to their defaults.
const DefaultPipelineTimeout = 45 * time.Second

// searcher executes assembled queries against the catalog.
type searcher interface {
	Search(ctx context.Context, q catalog.Query) ([]catalog.Item, error)
}

// ServiceConfig holds the pipeline service collaborators.
type ServiceConfig struct {
	// Classifier determines query intent. Required.
	Classifier *Classifier

	// Orchestrator assembles catalog queries. Required.
	Orchestrator *Orchestrator

	// Catalog executes searches. Required.
	Catalog searcher

	// Composer writes response narratives. Required.
	Composer *Composer

	// Timeout bounds one query end to end (optional, defaults to 45s).
	Timeout time.Duration

	// Logger for pipeline operations.
	Logger zerolog.Logger
}

// Service is the pipeline entry point exposed to the API layer.
type Service struct {
	classifier   *Classifier
	orchestrator *Orchestrator
	catalog      searcher
	composer     *Composer
	timeout      time.Duration
	logger       zerolog.Logger
}

// NewService creates the pipeline service.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultPipelineTimeout
	}
	return &Service{
		classifier:   cfg.Classifier,
		orchestrator: cfg.Orchestrator,
		catalog:      cfg.Catalog,
		composer:     cfg.Composer,
		timeout:      timeout,
		logger:       cfg.Logger,
	}
}

// ProcessQuery runs the full pipeline for one query. The only input error
// is blank text; everything downstream degrades to defaults and still
// returns a best-effort result.
func (s *Service) ProcessQuery(ctx context.Context, qc QueryContext) (*Result, error) {
	if strings.TrimSpace(qc.Text) == "" {
		return nil, ErrEmptyQuery
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	intent := s.classifier.Classify(ctx, qc)

	result := &Result{Intent: intent}

	if intent.NeedsCatalogData {
		result.Query = s.orchestrator.Assemble(ctx, qc)
		items, failed := s.search(ctx, result.Query)
		result.Tiles = SelectTiles(items, result.Query)
		if result.Tiles.Considered == 0 && !failed {
			result.Query.Notes = append(result.Query.Notes, "No scenes matched the search; try a wider time window or area.")
		}
	}

	result.Narrative = s.composer.Compose(ctx, qc, intent, result.Query, result.Tiles)

	s.logger.Info().
		Str("intent", string(intent.Intent)).
		Int("tiles", len(result.Tiles.Items)).
		Dur("duration", time.Since(start)).
		Msg("query processed")

	return result, nil
}

// search runs the catalog searches for the assembled query. Optical
// collections are searched with the cloud filter; filter-exempt
// collections are searched without it so the filter cannot drop items that
// never report cloud cover. A search failure is recovered with a note, not
// surfaced.
func (s *Service) search(ctx context.Context, q *AssembledQuery) ([]catalog.Item, bool) {
	var filtered, exempt []string
	for _, c := range q.Selection.Collections {
		if c.FilterExempt {
			exempt = append(exempt, c.ID)
		} else {
			filtered = append(filtered, c.ID)
		}
	}

	var items []catalog.Item
	failed := false

	if len(filtered) > 0 {
		var cloudMax *float64
		if q.Filter != nil {
			cloudMax = &q.Filter.MaxPercent
		}
		got, err := s.catalog.Search(ctx, q.CatalogQuery(filtered, cloudMax))
		if err != nil {
			s.logger.Warn().Err(err).Strs("collections", filtered).Msg("catalog search failed")
			failed = true
		}
		items = append(items, got...)
	}

	if len(exempt) > 0 {
		got, err := s.catalog.Search(ctx, q.CatalogQuery(exempt, nil))
		if err != nil {
			s.logger.Warn().Err(err).Strs("collections", exempt).Msg("catalog search failed")
			failed = true
		}
		items = append(items, got...)
	}

	if failed && len(items) == 0 {
		q.Notes = append(q.Notes, "The imagery catalog could not be reached; no scenes are shown.")
	}
	return items, failed
}

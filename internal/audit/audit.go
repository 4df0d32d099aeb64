// Package audit checks the collection registry against the live catalog.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/registry"
)

// collectionChecker verifies that a collection exists in the catalog.
type collectionChecker interface {
	CollectionExists(ctx context.Context, id string) (bool, error)
}

// Config holds configuration for the registry audit job.
type Config struct {
	// Concurrency is the number of concurrent catalog checks.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each collection check.
	// Default: 10 seconds
	Timeout time.Duration
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 3,
		Timeout:     10 * time.Second,
	}
}

// JobConfig holds configuration for creating a Job.
type JobConfig struct {
	Config   Config
	Logger   zerolog.Logger
	Catalog  collectionChecker
	Registry *registry.Registry
}

// Job verifies every registry collection against the catalog. A
// collection the catalog no longer serves means the registry snapshot
// has drifted and needs a new release.
type Job struct {
	config   Config
	logger   zerolog.Logger
	catalog  collectionChecker
	registry *registry.Registry

	metrics *Metrics
}

// Metrics tracks audit job statistics.
type Metrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	CheckedTotal    int64
	MissingTotal    int64
	ErroredTotal    int64
	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// NewJob creates a new registry audit job.
func NewJob(cfg JobConfig) *Job {
	config := cfg.Config
	if config.Concurrency == 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	return &Job{
		config:   config,
		logger:   cfg.Logger,
		catalog:  cfg.Catalog,
		registry: cfg.Registry,
		metrics:  &Metrics{},
	}
}

// Result contains the outcome of one audit run.
type Result struct {
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
	RegistryVersion string
	Total           int
	Present         int
	Missing         []string
	Errors          []CheckError
}

// Drifted reports whether the registry references collections the
// catalog no longer serves.
func (r *Result) Drifted() bool {
	return len(r.Missing) > 0
}

// CheckError represents a check that could not complete.
type CheckError struct {
	Collection string
	Error      string
}

// Run audits every registry collection against the catalog.
func (j *Job) Run(ctx context.Context) *Result {
	startTime := time.Now()
	ids := j.registry.CollectionIDs()

	result := &Result{
		StartTime:       startTime,
		RegistryVersion: j.registry.Version(),
		Total:           len(ids),
	}

	j.logger.Info().
		Str("registry_version", result.RegistryVersion).
		Int("collections", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting registry audit")

	idsChan := make(chan string, len(ids))
	resultsChan := make(chan checkResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.checkWorker(ctx, idsChan, resultsChan)
		}()
	}

	for _, id := range ids {
		idsChan <- id
	}
	close(idsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for cr := range resultsChan {
		switch {
		case cr.err != "":
			result.Errors = append(result.Errors, CheckError{
				Collection: cr.id,
				Error:      cr.err,
			})
		case cr.present:
			result.Present++
		default:
			result.Missing = append(result.Missing, cr.id)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	event := j.logger.Info()
	if result.Drifted() {
		event = j.logger.Warn()
	}
	event.
		Dur("duration", result.Duration).
		Int("present", result.Present).
		Strs("missing", result.Missing).
		Int("errors", len(result.Errors)).
		Msg("registry audit completed")

	return result
}

type checkResult struct {
	id      string
	present bool
	err     string
}

func (j *Job) checkWorker(ctx context.Context, ids <-chan string, results chan<- checkResult) {
	for id := range ids {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.checkCollection(ctx, id)
		}
	}
}

func (j *Job) checkCollection(ctx context.Context, id string) checkResult {
	checkCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	exists, err := j.catalog.CollectionExists(checkCtx, id)
	if err != nil {
		return checkResult{id: id, err: err.Error()}
	}
	return checkResult{id: id, present: exists}
}

func (j *Job) updateMetrics(result *Result) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.CheckedTotal += int64(result.Total)
	j.metrics.MissingTotal += int64(len(result.Missing))
	j.metrics.ErroredTotal += int64(len(result.Errors))
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *Job) GetMetrics() Metrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return Metrics{
		TotalRuns:       j.metrics.TotalRuns,
		CheckedTotal:    j.metrics.CheckedTotal,
		MissingTotal:    j.metrics.MissingTotal,
		ErroredTotal:    j.metrics.ErroredTotal,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *Job) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"checked_total":     m.CheckedTotal,
		"missing_total":     m.MissingTotal,
		"errored_total":     m.ErroredTotal,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
	}
}

// Package main provides the registry audit command. It verifies every
// collection in the embedded registry against the live catalog and
// exits non-zero when the registry has drifted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/audit"
	"github.com/skylens/skylens/internal/catalog"
	"github.com/skylens/skylens/internal/registry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", "skylens-audit").
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting registry audit")

	reg, err := registry.LoadDefault()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load collection registry")
	}

	catalogClient := catalog.NewClient(catalog.ClientConfig{
		BaseURL: os.Getenv("STAC_BASE_URL"),
		Logger:  log,
	})

	job := audit.NewJob(audit.JobConfig{
		Logger:   log,
		Catalog:  catalogClient,
		Registry: reg,
	})

	// Cancel on interrupt so a stuck catalog does not hang the run.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	result := job.Run(ctx)

	switch {
	case result.Drifted():
		log.Error().
			Strs("missing", result.Missing).
			Msg("registry drift detected - release an updated registry snapshot")
		os.Exit(1)
	case len(result.Errors) > 0:
		log.Warn().
			Int("errors", len(result.Errors)).
			Msg("audit inconclusive - some checks failed")
		os.Exit(2)
	default:
		log.Info().Msg("registry matches the catalog")
	}
}

// Package main provides the entrypoint for the SkyLens API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/api"
	"github.com/skylens/skylens/internal/api/middleware"
	"github.com/skylens/skylens/internal/catalog"
	"github.com/skylens/skylens/internal/geocode"
	"github.com/skylens/skylens/internal/geocode/azuremaps"
	"github.com/skylens/skylens/internal/geocode/geonames"
	"github.com/skylens/skylens/internal/geocode/nominatim"
	"github.com/skylens/skylens/internal/llm/openai"
	"github.com/skylens/skylens/internal/pipeline"
	"github.com/skylens/skylens/internal/provider/resilience"
	"github.com/skylens/skylens/internal/registry"
	"github.com/skylens/skylens/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skylens-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SkyLens API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Load the collection registry embedded in the binary
	reg, err := registry.LoadDefault()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load collection registry")
	}
	log.Info().
		Str("registry_version", reg.Version()).
		Int("profiles", reg.ProfileCount()).
		Msg("collection registry loaded")

	// Provider health registry
	providers := resilience.NewRegistry()

	// Initialize the LLM completer
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set - classification and narration fall back to heuristics")
	}
	completer := openai.NewClient(openai.ClientConfig{
		APIKey:  openaiKey,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
		Logger:  log,
	})

	// Build the geocoding cascade: configured providers in tier order,
	// LLM inference as the last resort.
	var tiers []geocode.Tier

	if key := os.Getenv("AZURE_MAPS_KEY"); key != "" {
		tiers = append(tiers, geocode.Tier{
			Source: geocode.SourcePrimary,
			Geocoder: azuremaps.NewClient(azuremaps.ClientConfig{
				SubscriptionKey: key,
				Registry:        providers,
				Logger:          log,
			}),
		})
	} else {
		log.Warn().Msg("AZURE_MAPS_KEY not set - primary geocoding tier disabled")
	}

	if username := os.Getenv("GEONAMES_USERNAME"); username != "" {
		tiers = append(tiers, geocode.Tier{
			Source: geocode.SourceSecondary,
			Geocoder: geonames.NewClient(geonames.ClientConfig{
				Username: username,
				Registry: providers,
				Logger:   log,
			}),
		})
	}

	tiers = append(tiers, geocode.Tier{
		Source: geocode.SourceTertiary,
		Geocoder: nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:  os.Getenv("NOMINATIM_BASE_URL"),
			Registry: providers,
			Logger:   log,
		}),
	})

	tiers = append(tiers, geocode.Tier{
		Source:   geocode.SourceInference,
		Geocoder: geocode.NewInferenceGeocoder(completer, log),
	})

	geoCache := geocode.NewCache(geocode.CacheConfig{})
	resolver := geocode.NewResolver(geocode.ResolverConfig{
		Cache:  geoCache,
		Tiers:  tiers,
		Logger: log,
	})
	log.Info().Int("tiers", len(tiers)).Msg("geocoding cascade initialized")

	// Initialize the catalog client
	catalogClient := catalog.NewClient(catalog.ClientConfig{
		BaseURL:  os.Getenv("STAC_BASE_URL"),
		Registry: providers,
		Logger:   log,
	})

	// Assemble the query pipeline
	pipelineService := pipeline.NewService(pipeline.ServiceConfig{
		Classifier: pipeline.NewClassifier(completer, log),
		Orchestrator: pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
			Extractor: pipeline.NewLocationExtractor(completer, log),
			Resolver:  resolver,
			Selector:  reg,
			Logger:    log,
		}),
		Catalog:  catalogClient,
		Composer: pipeline.NewComposer(completer, log),
		Logger:   log,
	})
	log.Info().Msg("query pipeline initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Pipeline:    pipelineService,
		Registry:    reg,
		Providers:   providers,
		GeoCache:    geoCache,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

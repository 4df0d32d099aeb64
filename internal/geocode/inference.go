package geocode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/geom"
	"github.com/skylens/skylens/internal/llm"
)

// InferenceConfidenceCap bounds the confidence of estimated locations so
// they always rank below provider-sourced results.
const InferenceConfidenceCap = 0.4

const inferenceInstruction = `You are a geography reference. Given a place name, estimate its bounding box in WGS84 decimal degrees.
Respond with only a JSON object of this exact shape:
{"name": "<formatted place name>", "type": "<city|region|country|landmark>", "west": <number>, "south": <number>, "east": <number>, "north": <number>}
If the name is not a real place, respond with {"name": "", "type": "", "west": 0, "south": 0, "east": 0, "north": 0}.`

// InferenceGeocoder is the last cascade tier: it asks a text-completion
// service to estimate a bounding box for names no provider could resolve.
type InferenceGeocoder struct {
	completer llm.Completer
	logger    zerolog.Logger
}

// NewInferenceGeocoder creates the completion-backed geocoder.
func NewInferenceGeocoder(completer llm.Completer, logger zerolog.Logger) *InferenceGeocoder {
	return &InferenceGeocoder{
		completer: completer,
		logger:    logger,
	}
}

// Name returns the provider name.
func (g *InferenceGeocoder) Name() string {
	return "llm-inference"
}

// Geocode estimates a bounding box for the name. Estimates failing the
// coordinate invariants are rejected by the resolver like any other tier.
func (g *InferenceGeocoder) Geocode(ctx context.Context, name string, hint LocationType) (*LocationEntity, error) {
	user := name
	if hint != "" {
		user = fmt.Sprintf("%s (expected type: %s)", name, hint)
	}

	out, err := g.completer.Complete(ctx, llm.Request{
		System:      inferenceInstruction,
		User:        user,
		MaxTokens:   200,
		Temperature: 0,
		JSONOnly:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("inference call: %w", err)
	}

	var parsed struct {
		Name  string  `json:"name"`
		Type  string  `json:"type"`
		West  float64 `json:"west"`
		South float64 `json:"south"`
		East  float64 `json:"east"`
		North float64 `json:"north"`
	}
	if err := llm.DecodeJSON(out, &parsed); err != nil {
		return nil, fmt.Errorf("parse inference output: %w", err)
	}
	if parsed.Name == "" {
		return nil, ErrNotFound
	}

	locType := LocationType(parsed.Type)
	switch locType {
	case TypeCity, TypeRegion, TypeCountry, TypeLandmark:
	default:
		locType = hint
	}

	return &LocationEntity{
		Name: parsed.Name,
		Type: locType,
		BBox: geom.BBox{
			West:  parsed.West,
			South: parsed.South,
			East:  parsed.East,
			North: parsed.North,
		},
		Confidence: InferenceConfidenceCap,
	}, nil
}

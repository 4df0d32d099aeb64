package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/geocode"
	"github.com/skylens/skylens/internal/llm"
)

const locationInstruction = `You extract place names from geospatial queries.
Find the single most specific place name in the query, if any.
Respond with JSON only:
{"name": "<place name or empty string>", "type": "<city|region|country|landmark|coordinate>"}`

// LocationExtractor pulls a place name and type hint out of query text.
// Extraction never fails: a malformed or unavailable completion degrades to
// a capitalization heuristic, and a query with no place name at all simply
// reports none.
type LocationExtractor struct {
	completer llm.Completer
	logger    zerolog.Logger
}

// NewLocationExtractor creates a location extractor.
func NewLocationExtractor(completer llm.Completer, logger zerolog.Logger) *LocationExtractor {
	return &LocationExtractor{completer: completer, logger: logger}
}

type locationEstimate struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Extract returns the place name and type hint found in the text. The
// third return value is false when the text names no place.
func (e *LocationExtractor) Extract(ctx context.Context, text string) (string, geocode.LocationType, bool) {
	name, hint, err := e.extractLLM(ctx, text)
	if err != nil {
		e.logger.Debug().Err(err).Msg("location completion failed, using capitalization heuristic")
		name = extractCapitalized(text)
		hint = ""
	}
	if name == "" {
		return "", "", false
	}
	return name, hint, true
}

func (e *LocationExtractor) extractLLM(ctx context.Context, text string) (string, geocode.LocationType, error) {
	out, err := e.completer.Complete(ctx, llm.Request{
		System:      locationInstruction,
		User:        text,
		MaxTokens:   100,
		Temperature: 0,
		JSONOnly:    true,
	})
	if err != nil {
		return "", "", err
	}

	var est locationEstimate
	if err := llm.DecodeJSON(out, &est); err != nil {
		return "", "", fmt.Errorf("decode location estimate: %w", err)
	}

	name := strings.TrimSpace(est.Name)
	hint := geocode.LocationType(strings.ToLower(strings.TrimSpace(est.Type)))
	switch hint {
	case geocode.TypeCity, geocode.TypeRegion, geocode.TypeCountry, geocode.TypeLandmark, geocode.TypeCoordinate:
	default:
		hint = ""
	}
	return name, hint, nil
}

// prepositions that commonly introduce a place name in imagery queries.
var locationPrepositions = map[string]bool{
	"of": true, "in": true, "near": true, "over": true, "around": true, "at": true,
}

// extractCapitalized finds the first run of capitalized words following a
// location preposition. Works on the raw (un-normalized) text since it
// depends on casing.
func extractCapitalized(text string) string {
	words := strings.Fields(text)
	for i := 0; i < len(words)-1; i++ {
		if !locationPrepositions[strings.ToLower(words[i])] {
			continue
		}
		var run []string
		for j := i + 1; j < len(words); j++ {
			w := strings.Trim(words[j], ",.;:!?\"'()")
			if w == "" || !unicode.IsUpper([]rune(w)[0]) {
				break
			}
			run = append(run, w)
			// Trailing punctuation ends the phrase.
			if strings.TrimRight(words[j], ",.;:!?\"')") != words[j] {
				break
			}
		}
		if len(run) > 0 {
			return strings.Join(run, " ")
		}
	}
	return ""
}

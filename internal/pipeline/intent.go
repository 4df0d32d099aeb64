package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/llm"
	"github.com/skylens/skylens/pkg/textscan"
)

// HybridThreshold is the classifier confidence below which an intent is
// downgraded to hybrid, so both the catalog and narrative paths run.
const HybridThreshold = 0.4

const intentInstruction = `You classify geospatial queries for a satellite imagery application.
Classify the query into exactly one intent:
- "visualization": the user wants to see satellite imagery of a place or event
- "informational": the user asks a factual question that needs no imagery
- "hybrid": the user asks a question best answered with both an explanation and imagery
- "analysis": the user wants measurements or comparisons derived from imagery
Respond with JSON only: {"intent": "<intent>", "confidence": <0..1>}`

// Classifier determines the intent of a query. Classification never fails:
// a malformed or unavailable completion degrades to a keyword heuristic,
// and past that to a zero-confidence visualization default.
type Classifier struct {
	completer llm.Completer
	logger    zerolog.Logger
}

// NewClassifier creates an intent classifier.
func NewClassifier(completer llm.Completer, logger zerolog.Logger) *Classifier {
	return &Classifier{completer: completer, logger: logger}
}

type intentEstimate struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Classify determines the intent of the query text.
func (c *Classifier) Classify(ctx context.Context, qc QueryContext) IntentResult {
	result, err := c.classifyLLM(ctx, qc)
	if err != nil {
		c.logger.Debug().Err(err).Msg("intent completion failed, using keyword heuristic")
		result = classifyKeywords(qc.Text)
	} else if result.Confidence < HybridThreshold && result.Intent != IntentHybrid {
		// An uncertain classification runs both paths rather than
		// committing to the wrong one.
		c.logger.Debug().
			Str("intent", string(result.Intent)).
			Float64("confidence", result.Confidence).
			Msg("low-confidence intent downgraded to hybrid")
		result.Intent = IntentHybrid
	}

	result.NeedsCatalogData = result.Intent != IntentInformational
	result.NeedsNarrative = result.Intent != IntentVisualization
	return result
}

func (c *Classifier) classifyLLM(ctx context.Context, qc QueryContext) (IntentResult, error) {
	user := qc.Text
	if len(qc.History) > 0 {
		last := qc.History[len(qc.History)-1]
		user = fmt.Sprintf("Previous turn: %s\n\nQuery: %s", last.Content, qc.Text)
	}

	out, err := c.completer.Complete(ctx, llm.Request{
		System:      intentInstruction,
		User:        user,
		MaxTokens:   100,
		Temperature: 0,
		JSONOnly:    true,
	})
	if err != nil {
		return IntentResult{}, err
	}

	var est intentEstimate
	if err := llm.DecodeJSON(out, &est); err != nil {
		return IntentResult{}, fmt.Errorf("decode intent estimate: %w", err)
	}

	intent := Intent(strings.ToLower(strings.TrimSpace(est.Intent)))
	if !intent.Valid() {
		return IntentResult{}, fmt.Errorf("unknown intent %q", est.Intent)
	}
	if est.Confidence < 0 || est.Confidence > 1 {
		return IntentResult{}, fmt.Errorf("confidence %v out of range", est.Confidence)
	}

	return IntentResult{Intent: intent, Confidence: est.Confidence}, nil
}

// Keyword groups for the heuristic fallback.
var (
	imageryTerms  = []string{"imagery", "image", "images", "satellite", "show", "see", "view", "display", "map", "picture"}
	spatialTerms  = []string{"in", "near", "over", "around", "at", "of"}
	temporalTerms = []string{"last", "recent", "latest", "today", "yesterday", "month", "year", "summer", "winter", "spring", "autumn", "fall"}
	questionTerms = []string{"what", "why", "how", "when", "who", "explain", "caused", "cause"}
	analysisTerms = []string{"analyze", "analyse", "compare", "measure", "detect", "change detection", "difference"}
)

// classifyKeywords is the no-LLM fallback heuristic.
func classifyKeywords(text string) IntentResult {
	hasImagery := textscan.ContainsAny(text, imageryTerms...)
	hasSpatial := textscan.ContainsAny(text, spatialTerms...)
	hasTemporal := textscan.ContainsAny(text, temporalTerms...)
	hasQuestion := textscan.ContainsAny(text, questionTerms...)
	hasAnalysis := textscan.ContainsAny(text, analysisTerms...)

	switch {
	case hasAnalysis:
		return IntentResult{Intent: IntentAnalysis, Confidence: 0.5}
	case hasQuestion && (hasImagery || hasSpatial || hasTemporal):
		return IntentResult{Intent: IntentHybrid, Confidence: 0.5}
	case hasQuestion:
		return IntentResult{Intent: IntentInformational, Confidence: 0.5}
	case hasImagery || (hasSpatial && hasTemporal):
		return IntentResult{Intent: IntentVisualization, Confidence: 0.5}
	default:
		// Last resort: proceed as a visualization request so the
		// pipeline can still return something useful.
		return IntentResult{Intent: IntentVisualization, Confidence: 0}
	}
}

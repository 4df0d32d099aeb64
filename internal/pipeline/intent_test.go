package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/skylens/skylens/internal/llm"
)

// scriptedCompleter routes completions by a substring of the system prompt,
// so one instance can serve every pipeline call site in a test.
type scriptedCompleter struct {
	// responses maps a system-prompt substring to the canned output.
	responses map[string]string

	// err fails every call when set.
	err error

	calls []llm.Request
}

func (s *scriptedCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return "", s.err
	}
	for key, out := range s.responses {
		if strings.Contains(req.System, key) {
			return out, nil
		}
	}
	return "", llm.ErrEmptyResponse
}

func TestClassifier_Classify(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"classify geospatial queries": `{"intent": "visualization", "confidence": 0.92}`,
	}}
	c := NewClassifier(completer, zerolog.Nop())

	got := c.Classify(context.Background(), QueryContext{Text: "Show me satellite imagery of Seattle from last month"})

	assert.Equal(t, IntentVisualization, got.Intent)
	assert.Equal(t, 0.92, got.Confidence)
	assert.True(t, got.NeedsCatalogData)
	assert.False(t, got.NeedsNarrative)
}

func TestClassifier_LowConfidenceBecomesHybrid(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"classify": `{"intent": "informational", "confidence": 0.2}`,
	}}
	c := NewClassifier(completer, zerolog.Nop())

	got := c.Classify(context.Background(), QueryContext{Text: "what happened there"})

	assert.Equal(t, IntentHybrid, got.Intent)
	assert.True(t, got.NeedsCatalogData)
	assert.True(t, got.NeedsNarrative)
}

func TestClassifier_MalformedOutputFallsBackToKeywords(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"classify": `certainly! the intent here is probably visual`,
	}}
	c := NewClassifier(completer, zerolog.Nop())

	got := c.Classify(context.Background(), QueryContext{Text: "show me satellite imagery of Tokyo"})

	assert.Equal(t, IntentVisualization, got.Intent)
	assert.Equal(t, 0.5, got.Confidence)
}

func TestClassifier_CompleterDown(t *testing.T) {
	completer := &scriptedCompleter{err: errors.New("connection refused")}
	c := NewClassifier(completer, zerolog.Nop())

	tests := []struct {
		text string
		want Intent
	}{
		{"show me satellite imagery of Tokyo", IntentVisualization},
		{"what caused the 2023 wildfires in California", IntentHybrid},
		{"why is the sky blue", IntentInformational},
		{"compare deforestation between 2020 and 2024", IntentAnalysis},
	}
	for _, tt := range tests {
		got := c.Classify(context.Background(), QueryContext{Text: tt.text})
		assert.Equal(t, tt.want, got.Intent, tt.text)
	}
}

func TestClassifier_LastResortDefault(t *testing.T) {
	completer := &scriptedCompleter{err: errors.New("connection refused")}
	c := NewClassifier(completer, zerolog.Nop())

	// No imagery, spatial, temporal, or question cue at all.
	got := c.Classify(context.Background(), QueryContext{Text: "zzzz qqqq"})

	assert.Equal(t, IntentVisualization, got.Intent)
	assert.Zero(t, got.Confidence)
	assert.True(t, got.NeedsCatalogData)
}

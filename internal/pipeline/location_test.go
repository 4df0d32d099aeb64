package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/skylens/skylens/internal/geocode"
)

func TestLocationExtractor_Extract(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"extract place names": `{"name": "Seattle", "type": "city"}`,
	}}
	e := NewLocationExtractor(completer, zerolog.Nop())

	name, hint, ok := e.Extract(context.Background(), "show me satellite imagery of Seattle")

	assert.True(t, ok)
	assert.Equal(t, "Seattle", name)
	assert.Equal(t, geocode.TypeCity, hint)
}

func TestLocationExtractor_NoPlaceNamed(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"extract place names": `{"name": "", "type": ""}`,
	}}
	e := NewLocationExtractor(completer, zerolog.Nop())

	_, _, ok := e.Extract(context.Background(), "show me something interesting")
	assert.False(t, ok)
}

func TestLocationExtractor_UnknownTypeDropped(t *testing.T) {
	completer := &scriptedCompleter{responses: map[string]string{
		"extract place names": `{"name": "Mount Rainier", "type": "volcano"}`,
	}}
	e := NewLocationExtractor(completer, zerolog.Nop())

	name, hint, ok := e.Extract(context.Background(), "imagery of Mount Rainier")

	assert.True(t, ok)
	assert.Equal(t, "Mount Rainier", name)
	assert.Empty(t, hint, "unknown type hints are discarded")
}

func TestLocationExtractor_CompleterDownUsesHeuristic(t *testing.T) {
	completer := &scriptedCompleter{err: errors.New("connection refused")}
	e := NewLocationExtractor(completer, zerolog.Nop())

	name, hint, ok := e.Extract(context.Background(), "show me wildfire imagery of Los Angeles County, please")

	assert.True(t, ok)
	assert.Equal(t, "Los Angeles County", name)
	assert.Empty(t, hint)
}

func TestExtractCapitalized(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"satellite imagery of Seattle from last month", "Seattle"},
		{"flooding near New Orleans yesterday", "New Orleans"},
		{"imagery over the Alps", ""},
		{"show me something interesting", ""},
		{"what is in Paris, France", "Paris"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractCapitalized(tt.text), tt.text)
	}
}

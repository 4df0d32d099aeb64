package textscan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skylens/skylens/pkg/textscan"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Show Me   Seattle  ", "show me seattle"},
		{"Wildfires, in California!", "wildfires in california"},
		{"'quoted' (terms)", "quoted terms"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, textscan.Normalize(tt.in))
	}
}

func TestContainsWord(t *testing.T) {
	text := "Show me satellite imagery of Seattle"

	assert.True(t, textscan.ContainsWord(text, "satellite"))
	assert.True(t, textscan.ContainsWord(text, "satellite imagery"))
	assert.True(t, textscan.ContainsWord(text, "SEATTLE"))

	// Substrings of longer words must not match.
	assert.False(t, textscan.ContainsWord(text, "sat"))
	assert.False(t, textscan.ContainsWord(text, "image"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, textscan.ContainsAny("recent floods in Pakistan", "flood", "floods", "flooding"))
	assert.False(t, textscan.ContainsAny("clear skies today", "flood", "wildfire"))
}

func TestFindMonth(t *testing.T) {
	m, ok := textscan.FindMonth("imagery from June 2024")
	assert.True(t, ok)
	assert.Equal(t, time.June, m)

	m, ok = textscan.FindMonth("show sept snow cover")
	assert.True(t, ok)
	assert.Equal(t, time.September, m)

	_, ok = textscan.FindMonth("no calendar terms here")
	assert.False(t, ok)
}

func TestFindSeason(t *testing.T) {
	s, ok := textscan.FindSeason("last fall")
	assert.True(t, ok)
	assert.Equal(t, textscan.SeasonAutumn, s)

	_, ok = textscan.FindSeason("recent imagery")
	assert.False(t, ok)
}

func TestFindYear(t *testing.T) {
	y, ok := textscan.FindYear("the 2023 wildfires in California")
	assert.True(t, ok)
	assert.Equal(t, 2023, y)

	// Phone-number-like or implausible values are skipped.
	_, ok = textscan.FindYear("room 1203 and 12345")
	assert.False(t, ok)

	_, ok = textscan.FindYear("nothing here")
	assert.False(t, ok)
}

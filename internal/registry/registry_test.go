package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	reg, err := LoadDefault()
	require.NoError(t, err)

	assert.NotEmpty(t, reg.Version())
	assert.Equal(t, []string{"sentinel-2-l2a", "landsat-c2-l2"}, reg.Defaults())
	assert.GreaterOrEqual(t, reg.ProfileCount(), 100, "embedded registry should cover 100+ domains")
	assert.GreaterOrEqual(t, len(reg.CollectionIDs()), 20)
}

func TestLoadDefault_CollectionMetadata(t *testing.T) {
	reg, err := LoadDefault()
	require.NoError(t, err)

	s2, ok := reg.Collection("sentinel-2-l2a")
	require.True(t, ok)
	assert.Equal(t, TypeOptical, s2.Type)
	assert.False(t, s2.FilterExempt())
	require.NotNil(t, s2.CloudCeiling)
	assert.Equal(t, 20, *s2.CloudCeiling)
	assert.Equal(t, 10.0, s2.GSD)

	s1, ok := reg.Collection("sentinel-1-grd")
	require.True(t, ok)
	assert.Equal(t, TypeRadar, s1.Type)
	assert.True(t, s1.FilterExempt())
	assert.Nil(t, s1.CloudCeiling)

	dem, ok := reg.Collection("cop-dem-glo-30")
	require.True(t, ok)
	assert.Equal(t, TypeElevation, dem.Type)
	assert.True(t, dem.FilterExempt())

	fire, ok := reg.Collection("modis-14a1-061")
	require.True(t, ok)
	assert.Equal(t, TypeThermal, fire.Type)
	assert.True(t, fire.FilterExempt())
}

func TestLoad_Validation(t *testing.T) {
	valid := `
version: "test"
defaults: [a]
collections:
  - {id: a, title: "A", type: optical, gsd: 10, cloud_ceiling: 20}
profiles:
  - domain: fire
    keywords: [fire]
    primary: [a]
`

	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "valid document loads",
			mutate:  func(s string) string { return s },
			wantErr: "",
		},
		{
			name:    "missing version",
			mutate:  func(s string) string { return strings.Replace(s, `version: "test"`, "", 1) },
			wantErr: "missing version",
		},
		{
			name:    "missing defaults",
			mutate:  func(s string) string { return strings.Replace(s, "defaults: [a]", "defaults: []", 1) },
			wantErr: "missing default collections",
		},
		{
			name:    "unknown default collection",
			mutate:  func(s string) string { return strings.Replace(s, "defaults: [a]", "defaults: [missing]", 1) },
			wantErr: `default collection "missing" not described`,
		},
		{
			name:    "unknown collection type",
			mutate:  func(s string) string { return strings.Replace(s, "type: optical", "type: sonar", 1) },
			wantErr: "unknown type",
		},
		{
			name:    "cloud ceiling out of range",
			mutate:  func(s string) string { return strings.Replace(s, "cloud_ceiling: 20", "cloud_ceiling: 130", 1) },
			wantErr: "out of range",
		},
		{
			name:    "profile references unknown collection",
			mutate:  func(s string) string { return strings.Replace(s, "primary: [a]", "primary: [missing]", 1) },
			wantErr: `references unknown collection "missing"`,
		},
		{
			name:    "profile without keywords",
			mutate:  func(s string) string { return strings.Replace(s, "keywords: [fire]", "keywords: []", 1) },
			wantErr: "no keywords",
		},
		{
			name: "duplicate domain",
			mutate: func(s string) string {
				return s + `
  - domain: fire
    keywords: [flame]
    primary: [a]
`
			},
			wantErr: `duplicate profile domain "fire"`,
		},
		{
			name: "duplicate collection id",
			mutate: func(s string) string {
				return strings.Replace(s,
					`  - {id: a, title: "A", type: optical, gsd: 10, cloud_ceiling: 20}`,
					`  - {id: a, title: "A", type: optical, gsd: 10, cloud_ceiling: 20}
  - {id: a, title: "A again", type: radar, gsd: 10}`, 1)
			},
			wantErr: `duplicate collection "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Load(strings.NewReader(tt.mutate(valid)))
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, 1, reg.ProfileCount())
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

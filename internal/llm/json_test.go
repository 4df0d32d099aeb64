package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylens/skylens/internal/llm"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"intent":"visualization","confidence":0.9}`,
			want:  `{"intent":"visualization","confidence":0.9}`,
		},
		{
			name:  "fenced json",
			input: "```json\n{\"west\":-122.5}\n```",
			want:  `{"west":-122.5}`,
		},
		{
			name:  "surrounded by prose",
			input: "Sure! Here is the result:\n{\"a\":1}\nLet me know if you need more.",
			want:  `{"a":1}`,
		},
		{
			name:  "nested objects",
			input: `prefix {"a":{"b":2},"c":3} suffix`,
			want:  `{"a":{"b":2},"c":3}`,
		},
		{
			name:  "braces inside strings",
			input: `{"note":"a } tricky { value"}`,
			want:  `{"note":"a } tricky { value"}`,
		},
		{
			name:    "no json at all",
			input:   "I could not determine a bounding box.",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			input:   `{"a":1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := llm.ExtractJSON(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, llm.ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}

	err := llm.DecodeJSON("```json\n{\"intent\":\"hybrid\",\"confidence\":0.7}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "hybrid", out.Intent)
	assert.InDelta(t, 0.7, out.Confidence, 1e-9)
}

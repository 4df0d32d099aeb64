package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be located in model output.
var ErrNoJSON = errors.New("no JSON object in completion output")

// ExtractJSON locates and returns the first JSON object embedded in model
// output. Models frequently wrap JSON in markdown fences or surround it
// with prose, so this scans for the first balanced {...} block instead of
// requiring the whole response to parse.
func ExtractJSON(output string) ([]byte, error) {
	s := strings.TrimSpace(output)

	// Strip a markdown fence if the response is wrapped in one.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, ErrNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// String contents do not affect nesting.
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := []byte(s[start : i+1])
				if !json.Valid(candidate) {
					return nil, ErrNoJSON
				}
				return candidate, nil
			}
		}
	}

	return nil, ErrNoJSON
}

// DecodeJSON extracts the first JSON object from model output and unmarshals
// it into v.
func DecodeJSON(output string, v any) error {
	raw, err := ExtractJSON(output)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

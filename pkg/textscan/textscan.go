// Package textscan provides small text scanning helpers for keyword and
// calendar-term matching over free-form query text.
package textscan

import (
	"strings"
	"time"
	"unicode"
)

// Normalize lowercases text, collapses runs of whitespace to single spaces,
// and trims surrounding punctuation and space.
func Normalize(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	fields := strings.FieldsFunc(lower, unicode.IsSpace)
	for i, f := range fields {
		fields[i] = strings.Trim(f, ",.;:!?\"'()[]")
	}
	return strings.Join(fields, " ")
}

// ContainsWord reports whether text contains the given word or phrase on
// word boundaries. Matching is case-insensitive.
func ContainsWord(text, word string) bool {
	t := " " + Normalize(text) + " "
	w := " " + Normalize(word) + " "
	return strings.Contains(t, w)
}

// ContainsAny reports whether text contains any of the given words or
// phrases on word boundaries.
func ContainsAny(text string, words ...string) bool {
	for _, w := range words {
		if ContainsWord(text, w) {
			return true
		}
	}
	return false
}

// CountMatches returns how many of the given words or phrases occur in text.
func CountMatches(text string, words ...string) int {
	n := 0
	for _, w := range words {
		if ContainsWord(text, w) {
			n++
		}
	}
	return n
}

// Months maps month names and common abbreviations to time.Month.
var Months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// Season identifies a named season using the northern-hemisphere calendar.
type Season string

// Named seasons.
const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// Seasons maps season names (including synonyms) to the canonical Season.
var Seasons = map[string]Season{
	"spring": SeasonSpring,
	"summer": SeasonSummer,
	"autumn": SeasonAutumn,
	"fall":   SeasonAutumn,
	"winter": SeasonWinter,
}

// FindMonth scans text for a month name and returns the first one found in
// word order. The second return value is false when no month is present.
func FindMonth(text string) (time.Month, bool) {
	for _, word := range strings.Fields(Normalize(text)) {
		if m, ok := Months[word]; ok {
			return m, true
		}
	}
	return 0, false
}

// FindSeason scans text for a named season.
func FindSeason(text string) (Season, bool) {
	for _, word := range strings.Fields(Normalize(text)) {
		if s, ok := Seasons[word]; ok {
			return s, true
		}
	}
	return "", false
}

// FindYear scans text for a plausible four-digit year (1970-2099) and
// returns the first one found in word order.
func FindYear(text string) (int, bool) {
	for _, word := range strings.Fields(Normalize(text)) {
		if len(word) != 4 {
			continue
		}
		year := 0
		valid := true
		for _, r := range word {
			if r < '0' || r > '9' {
				valid = false
				break
			}
			year = year*10 + int(r-'0')
		}
		if valid && year >= 1970 && year <= 2099 {
			return year, true
		}
	}
	return 0, false
}

package pipeline

import (
	"time"

	"github.com/skylens/skylens/pkg/textscan"
)

// Relative phrases mapped to lookback windows.
var relativePhrases = []struct {
	phrases  []string
	lookback time.Duration
}{
	{[]string{"last week", "past week"}, 7 * 24 * time.Hour},
	{[]string{"last month", "past month", "recent", "recently", "latest"}, 30 * 24 * time.Hour},
	{[]string{"last year", "past year"}, 365 * 24 * time.Hour},
}

// Season calendar boundaries (northern hemisphere, month and day).
var seasonBounds = map[textscan.Season]struct {
	startMonth, endMonth time.Month
	endDay               int
}{
	textscan.SeasonSpring: {time.March, time.May, 31},
	textscan.SeasonSummer: {time.June, time.August, 31},
	textscan.SeasonAutumn: {time.September, time.November, 30},
	textscan.SeasonWinter: {time.December, time.February, 28},
}

// TranslateTemporal maps temporal cues in the text to a concrete closed
// interval relative to the injected reference time. Precedence when
// multiple cues appear: explicit month (with or without a year) beats a
// bare year, which beats a named season, which beats a relative phrase.
// With no cue at all the reference time's calendar year is returned.
// Translation never fails.
func TranslateTemporal(text string, referenceNow time.Time) TemporalRange {
	now := referenceNow.UTC()
	year, hasYear := textscan.FindYear(text)

	if month, ok := textscan.FindMonth(text); ok {
		y := year
		if !hasYear {
			y = now.Year()
			if time.Date(y, month, 1, 0, 0, 0, 0, time.UTC).After(now) {
				y--
			}
		}
		start := time.Date(y, month, 1, 0, 0, 0, 0, time.UTC)
		return TemporalRange{
			Start:  start,
			End:    start.AddDate(0, 1, 0).Add(-time.Second),
			Source: TemporalSourceYearMonth,
		}
	}

	if hasYear {
		return TemporalRange{
			Start:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:    time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC),
			Source: TemporalSourceYear,
		}
	}

	if season, ok := textscan.FindSeason(text); ok {
		return seasonRange(season, now)
	}

	for _, rel := range relativePhrases {
		if textscan.ContainsAny(text, rel.phrases...) {
			return TemporalRange{
				Start:  now.Add(-rel.lookback),
				End:    now,
				Source: TemporalSourceRelative,
			}
		}
	}

	return TemporalRange{
		Start:  time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(now.Year(), time.December, 31, 23, 59, 59, 0, time.UTC),
		Source: TemporalSourceDefault,
	}
}

// seasonRange maps a named season to its most recent occurrence that has
// already started.
func seasonRange(season textscan.Season, now time.Time) TemporalRange {
	b := seasonBounds[season]

	year := now.Year()
	start := time.Date(year, b.startMonth, 1, 0, 0, 0, 0, time.UTC)
	if start.After(now) {
		year--
		start = time.Date(year, b.startMonth, 1, 0, 0, 0, 0, time.UTC)
	}

	// Winter spans the year boundary.
	endYear := year
	if b.endMonth < b.startMonth {
		endYear++
	}
	endDay := b.endDay
	if season == textscan.SeasonWinter && isLeap(endYear) {
		endDay = 29
	}

	return TemporalRange{
		Start:  start,
		End:    time.Date(endYear, b.endMonth, endDay, 23, 59, 59, 0, time.UTC),
		Source: TemporalSourceSeason,
	}
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

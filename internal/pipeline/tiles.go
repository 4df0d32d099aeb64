package pipeline

import (
	"sort"
	"time"

	"github.com/skylens/skylens/internal/catalog"
)

// SelectTiles ranks the search results for display and prunes them to the
// query limit. Ranking is deterministic for identical inputs: higher native
// resolution first, then fuller coverage of the requested extent, then
// membership in the dominant acquisition date, then recency, with the item
// id as the final tiebreak.
func SelectTiles(items []catalog.Item, q *AssembledQuery) TileSelection {
	sel := TileSelection{Considered: len(items)}
	if len(items) == 0 {
		return sel
	}

	// GSD lookup from the collection selection; unknown collections
	// rank behind known ones.
	gsd := make(map[string]float64, len(q.Selection.Collections))
	exempt := make(map[string]bool, len(q.Selection.Collections))
	for _, c := range q.Selection.Collections {
		gsd[c.ID] = c.GSD
		exempt[c.ID] = c.FilterExempt
	}

	// Enforce the cloud ceiling. Items from filter-exempt collections
	// and items without a reported cover pass through.
	kept := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if q.Filter != nil && !exempt[it.Collection] && it.CloudCover != nil && *it.CloudCover > q.Filter.MaxPercent {
			sel.Filtered++
			continue
		}
		kept = append(kept, it)
	}
	if len(kept) == 0 {
		return sel
	}

	dominant := dominantDate(kept)

	// Recency ranks over the kept set, 1 = newest.
	byRecency := make([]int, len(kept))
	for i := range byRecency {
		byRecency[i] = i
	}
	sort.SliceStable(byRecency, func(a, b int) bool {
		ta, tb := kept[byRecency[a]].Datetime, kept[byRecency[b]].Datetime
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return kept[byRecency[a]].ID < kept[byRecency[b]].ID
	})
	recencyRank := make(map[string]int, len(kept))
	for rank, idx := range byRecency {
		recencyRank[kept[idx].Collection+"/"+kept[idx].ID] = rank + 1
	}

	ranked := make([]RankedItem, 0, len(kept))
	for _, it := range kept {
		ranked = append(ranked, RankedItem{
			Item: it,
			Rationale: Rationale{
				GSD:            gsd[it.Collection],
				Coverage:       it.Coverage(q.BBox),
				ConsistentDate: it.Datetime.UTC().Truncate(24 * time.Hour).Equal(dominant),
				RecencyRank:    recencyRank[it.Collection+"/"+it.ID],
			},
		})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		ra, rb := ranked[a].Rationale, ranked[b].Rationale
		if ga, gb := effectiveGSD(ra.GSD), effectiveGSD(rb.GSD); ga != gb {
			return ga < gb
		}
		if ra.Coverage != rb.Coverage {
			return ra.Coverage > rb.Coverage
		}
		if ra.ConsistentDate != rb.ConsistentDate {
			return ra.ConsistentDate
		}
		return ra.RecencyRank < rb.RecencyRank
	})

	if len(ranked) > catalog.DefaultLimit {
		ranked = ranked[:catalog.DefaultLimit]
	}
	sel.Items = ranked
	return sel
}

// effectiveGSD sorts unknown resolutions last.
func effectiveGSD(gsd float64) float64 {
	if gsd <= 0 {
		return 1e9
	}
	return gsd
}

// dominantDate returns the UTC acquisition day shared by the most items,
// preferring the more recent day on ties.
func dominantDate(items []catalog.Item) time.Time {
	counts := make(map[time.Time]int, len(items))
	for _, it := range items {
		counts[it.Datetime.UTC().Truncate(24*time.Hour)]++
	}

	var best time.Time
	bestCount := 0
	for day, n := range counts {
		if n > bestCount || (n == bestCount && day.After(best)) {
			best, bestCount = day, n
		}
	}
	return best
}

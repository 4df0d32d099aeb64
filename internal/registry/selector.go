package registry

import (
	"sort"

	"github.com/skylens/skylens/pkg/textscan"
)

// MaxCollections caps the number of collections per assembled query.
// More collections multiply catalog search cost with little display value.
const MaxCollections = 3

// SelectedCollection is one collection chosen for a query, tagged with its
// recommended cloud-cover ceiling.
type SelectedCollection struct {
	// ID is the catalog collection identifier.
	ID string `json:"id"`

	// CloudCeiling is the recommended cloud-cover ceiling in percent.
	// Nil for filter-exempt collections.
	CloudCeiling *int `json:"cloudCeiling,omitempty"`

	// FilterExempt is true for radar/elevation/thermal sources.
	FilterExempt bool `json:"filterExempt"`

	// GSD is the nominal resolution in meters per pixel (0 if unknown).
	GSD float64 `json:"gsd,omitempty"`
}

// Selection is the ordered result of domain matching.
type Selection struct {
	// Collections is priority-first and never longer than MaxCollections.
	Collections []SelectedCollection `json:"collections"`

	// Domains lists the matched profile domains, most specific first.
	// Empty when the default set was used.
	Domains []string `json:"domains,omitempty"`

	// Defaulted is true when no domain matched and the default
	// collections were substituted.
	Defaulted bool `json:"defaulted"`
}

// IDs returns the bare collection identifiers, priority order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s.Collections))
	for _, c := range s.Collections {
		ids = append(ids, c.ID)
	}
	return ids
}

// domainMatch scores one matched profile.
type domainMatch struct {
	profile     Profile
	specificity int
}

// Select matches query text against the domain profiles and returns the
// merged, truncated collection selection. Profiles are ranked by
// specificity: longer matched phrases and more keyword hits rank higher.
// With no match at all, the registry defaults are substituted.
func (r *Registry) Select(text string) Selection {
	matches := r.matchDomains(text)

	if len(matches) == 0 {
		return Selection{
			Collections: r.describe(r.defaults),
			Defaulted:   true,
		}
	}

	// Merge primary lists in specificity order, deduplicating.
	var ids []string
	seen := make(map[string]bool)
	domains := make([]string, 0, len(matches))
	for _, m := range matches {
		domains = append(domains, m.profile.Domain)
		for _, id := range m.profile.Primary {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	// Top up from secondary lists only when the primaries fall short.
	if len(ids) < MaxCollections {
		for _, m := range matches {
			for _, id := range m.profile.Secondary {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}

	if len(ids) > MaxCollections {
		ids = ids[:MaxCollections]
	}

	return Selection{
		Collections: r.describe(ids),
		Domains:     domains,
	}
}

// matchDomains returns every profile whose keywords hit the text, most
// specific first. Ordering is deterministic: ties break on domain name.
func (r *Registry) matchDomains(text string) []domainMatch {
	var matches []domainMatch
	for _, p := range r.profiles {
		specificity := 0
		for _, kw := range p.Keywords {
			if textscan.ContainsWord(text, kw) {
				specificity += len(kw)
			}
		}
		if specificity > 0 {
			matches = append(matches, domainMatch{profile: p, specificity: specificity})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].specificity != matches[j].specificity {
			return matches[i].specificity > matches[j].specificity
		}
		return matches[i].profile.Domain < matches[j].profile.Domain
	})

	return matches
}

// describe attaches registry metadata to bare collection ids.
func (r *Registry) describe(ids []string) []SelectedCollection {
	out := make([]SelectedCollection, 0, len(ids))
	for _, id := range ids {
		info := r.collections[id]
		out = append(out, SelectedCollection{
			ID:           id,
			CloudCeiling: info.CloudCeiling,
			FilterExempt: info.FilterExempt(),
			GSD:          info.GSD,
		})
	}
	return out
}

// Describe attaches registry metadata to bare collection ids, skipping ids
// the registry does not know. Used to rehydrate a previous turn's
// selection.
func (r *Registry) Describe(ids []string) []SelectedCollection {
	known := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.collections[id]; ok {
			known = append(known, id)
		}
	}
	return r.describe(known)
}

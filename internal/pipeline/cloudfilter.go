package pipeline

import (
	"github.com/skylens/skylens/internal/registry"
	"github.com/skylens/skylens/pkg/textscan"
)

// Cloud-cover ceilings in percent.
const (
	// PrecisionCloudMax is the tight ceiling for visual-inspection
	// queries that explicitly ask for clear imagery.
	PrecisionCloudMax = 10.0

	// FallbackCloudMax is used when a selected optical collection
	// carries no recommended ceiling of its own.
	FallbackCloudMax = 20.0
)

// Phrases that signal the user wants visually clean imagery.
var precisionPhrases = []string{
	"clear", "cloudless", "cloud-free", "cloud free", "no clouds",
	"low cloud", "minimal cloud", "crisp", "clearest",
}

// AdviseCloudFilter chooses a cloud-cover ceiling for the selection, or nil
// when every selected collection is filter-exempt (radar, elevation,
// thermal) and a filter would be meaningless.
func AdviseCloudFilter(text string, sel registry.Selection) *CloudFilter {
	var ceiling *int
	optical := false
	for _, c := range sel.Collections {
		if c.FilterExempt {
			continue
		}
		optical = true
		if ceiling == nil && c.CloudCeiling != nil {
			ceiling = c.CloudCeiling
		}
	}
	if !optical {
		return nil
	}

	if textscan.ContainsAny(text, precisionPhrases...) {
		return &CloudFilter{MaxPercent: PrecisionCloudMax, Reason: FilterReasonPrecision}
	}

	max := FallbackCloudMax
	if ceiling != nil {
		max = float64(*ceiling)
	}
	return &CloudFilter{MaxPercent: max, Reason: FilterReasonDefault}
}

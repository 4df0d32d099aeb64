package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skylens/skylens/internal/llm"
)

const composerInstruction = `You are the voice of a satellite imagery application.
Write a short, factual summary of the search that was just performed for the user.
Mention the place, the time window, and the imagery sources used.
If any aspect of the search fell back to a default, say so plainly.
Do not invent scenes that are not listed. Two to four sentences, no markdown.`

// Composer produces the natural-language summary of a pipeline result.
// Composition never fails: an unavailable or malformed completion degrades
// to a templated summary built from the assembled query.
type Composer struct {
	completer llm.Completer
	logger    zerolog.Logger
}

// NewComposer creates a response composer.
func NewComposer(completer llm.Completer, logger zerolog.Logger) *Composer {
	return &Composer{completer: completer, logger: logger}
}

// Compose writes the narrative for the result.
func (c *Composer) Compose(ctx context.Context, qc QueryContext, intent IntentResult, q *AssembledQuery, tiles TileSelection) string {
	out, err := c.completer.Complete(ctx, llm.Request{
		System:      composerInstruction,
		User:        composerPrompt(qc, intent, q, tiles),
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil || strings.TrimSpace(out) == "" {
		c.logger.Debug().Err(err).Msg("narrative completion failed, using templated summary")
		return templatedSummary(q, tiles)
	}
	return strings.TrimSpace(out)
}

// composerPrompt renders the context the completion sees.
func composerPrompt(qc QueryContext, intent IntentResult, q *AssembledQuery, tiles TileSelection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\nIntent: %s\n", qc.Text, intent.Intent)

	if q != nil {
		if q.Location != nil {
			fmt.Fprintf(&b, "Location: %s (%s)\n", q.Location.Name, q.Location.Type)
		} else {
			b.WriteString("Location: global (unresolved)\n")
		}
		fmt.Fprintf(&b, "Time window: %s to %s (%s)\n",
			q.Temporal.Start.Format("2006-01-02"), q.Temporal.End.Format("2006-01-02"), q.Temporal.Source)
		fmt.Fprintf(&b, "Collections: %s\n", strings.Join(q.Selection.IDs(), ", "))
		if q.Filter != nil {
			fmt.Fprintf(&b, "Cloud cover limit: %.0f%%\n", q.Filter.MaxPercent)
		}
		for _, note := range q.Notes {
			fmt.Fprintf(&b, "Note: %s\n", note)
		}
	}

	fmt.Fprintf(&b, "Scenes found: %d\n", len(tiles.Items))
	for i, it := range tiles.Items {
		if i == 5 {
			fmt.Fprintf(&b, "... and %d more\n", len(tiles.Items)-5)
			break
		}
		fmt.Fprintf(&b, "- %s (%s, %s)\n", it.ID, it.Collection, it.Datetime.Format("2006-01-02"))
	}
	return b.String()
}

// templatedSummary is the no-LLM fallback narrative.
func templatedSummary(q *AssembledQuery, tiles TileSelection) string {
	if q == nil {
		return "I could not generate a detailed answer for this question right now."
	}

	place := "the whole globe"
	if q.Location != nil {
		place = q.Location.Name
	}

	var b strings.Builder
	if len(tiles.Items) == 0 {
		fmt.Fprintf(&b, "No scenes matched the search over %s between %s and %s.",
			place, q.Temporal.Start.Format("January 2, 2006"), q.Temporal.End.Format("January 2, 2006"))
	} else {
		fmt.Fprintf(&b, "Found %d scenes from %s over %s between %s and %s.",
			len(tiles.Items), strings.Join(q.Selection.IDs(), ", "), place,
			q.Temporal.Start.Format("January 2, 2006"), q.Temporal.End.Format("January 2, 2006"))
	}
	for _, note := range q.Notes {
		b.WriteString(" ")
		b.WriteString(note)
	}
	return b.String()
}

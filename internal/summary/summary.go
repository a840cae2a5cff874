// Package summary turns a window of work-log entries into a short
// accomplishment summary suitable for posting back into chat.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/careercompass/compass/internal/store"
)

// Summarizer produces a human-readable summary of work-log entries for an
// inclusive date range.
type Summarizer interface {
	Summarize(ctx context.Context, entries []store.Record, start, end string) (string, error)
}

// BuildPrompt renders the entry window into the prompt sent to the model.
// Output is deterministic: entries appear in the order given, one bullet per
// row, oldest first as stored.
func BuildPrompt(entries []store.Record, start, end string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize these work accomplishments from %s to %s.\n", start, end)
	b.WriteString("Group related items, keep it under 150 words, and lead with the highest-impact work.\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s]", e["date"])
		if t := e["type"]; t != "" {
			fmt.Fprintf(&b, " (%s)", t)
		}
		fmt.Fprintf(&b, " %s\n", e["text"])
	}
	return b.String()
}

// Fallback is a Summarizer that needs no API key. It renders the entries as
// a plain bullet list, used when the AI summarizer is not configured or as a
// degraded path when the model call fails.
type Fallback struct{}

// Summarize renders entries as a date-prefixed bullet list.
func (Fallback) Summarize(_ context.Context, entries []store.Record, start, end string) (string, error) {
	if len(entries) == 0 {
		return fmt.Sprintf("No entries logged between %s and %s.", start, end), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Accomplishments %s to %s:\n", start, end)
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s: %s\n", e["date"], e["text"])
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

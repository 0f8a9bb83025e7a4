package usage

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money formats a USD amount with four decimals
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "?"
	}
	return fmt.Sprintf("$%.4f", v)
}

// WriteText renders the report for humans
func WriteText(w io.Writer, r *Report) error {
	p := message.NewPrinter(language.English)
	start := time.UnixMilli(r.StartMs).UTC().Format(time.RFC3339)
	end := time.UnixMilli(r.EndMs).UTC().Format(time.RFC3339)

	p.Fprintf(w, "Usage window (UTC): %s  →  %s\n", start, end)
	p.Fprintf(w, "Timezone for labels: %s\n", r.TZ)
	p.Fprintf(w, "Files scanned: %d\n", r.FilesScanned)
	p.Fprintf(w, "Assistant messages counted: %d\n\n", r.MessagesCounted)

	p.Fprintf(w, "Tokens: in=%d out=%d cacheRead=%d cacheWrite=%d total=%d\n",
		r.Tokens.Input, r.Tokens.Output, r.Tokens.CacheRead, r.Tokens.CacheWrite, r.Tokens.Total)

	label, note := "Known", ""
	if r.Cost.Known <= 0 {
		label, note = "Estimated", " (using OpenRouter price cache if available)"
	}
	fmt.Fprintf(w, "%s cost: %s%s\n", label, Money(r.Cost.Effective()), note)
	if r.Cost.MissingPricingTokens > 0 {
		p.Fprintf(w, "Missing pricing for ~%d tokens (models not in cache).\n", r.Cost.MissingPricingTokens)
	}

	fmt.Fprintln(w, "\nBy model:")
	for _, m := range r.SortedModels() {
		kind := "known"
		if m.Cost.Known <= 0 {
			kind = "est"
		}
		p.Fprintf(w, "- %s: msgs=%d tokens=%d cost(%s)=%s\n",
			m.Model, m.Messages, m.Tokens.Total, kind, Money(m.Cost.Effective()))
	}
	return nil
}

// WriteJSON renders the report as indented JSON
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

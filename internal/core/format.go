package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/clawtools/internal/rules"
)

// FormatProposal renders the proposal as chat-friendly markdown
func FormatProposal(items []Candidate, p *rules.Policy, rulesPath string, now time.Time) string {
	lines := []string{
		fmt.Sprintf("**Reading triage** (%s UTC)", now.UTC().Format("2006-01-02 15:04")),
		"",
		fmt.Sprintf("Proposed moves to **%s** (lowest confidence → highest):", p.TargetFolder),
		"",
	}

	if len(items) == 0 {
		lines = append(lines,
			"• (no candidates right now)",
			"",
			fmt.Sprintf("Add senders to `allow.domains` / `allow.addresses` in %s to teach me what counts as Reading.", rulesPath),
		)
		return strings.Join(lines, "\n")
	}

	for i, it := range items {
		subject := it.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		why := ""
		if len(it.Reasons) > 0 {
			why = " (" + strings.Join(it.Reasons, ", ") + ")"
		}
		lines = append(lines, fmt.Sprintf("%d. **%s** – %s — *%d* `#%s`%s",
			i+1, it.Sender, subject, it.Confidence, it.ID, why))
	}

	lines = append(lines,
		"",
		"Reply with one of:",
		fmt.Sprintf("- `move all` (moves items with confidence ≥ %d)", p.Thresholds.DefaultMoveMin),
		"- `move 1 3 5` (moves selected numbers)",
		"- `not 2` (teaches me: sender is NOT Reading → adds to blocklist)",
		"- `always 4` (teaches me: sender IS Reading → adds to allowlist)",
	)
	return strings.Join(lines, "\n")
}

// FormatMoved describes a completed move
func FormatMoved(n int, source, target string) string {
	return fmt.Sprintf("Moved %d message(s) from %s → %s.", n, source, target)
}

package core

import (
	"sort"
	"strings"

	"github.com/mikey/clawtools/internal/rules"
)

// BuildCandidates scores every envelope and returns the proposals in display
// order: ascending confidence, newest first within equal confidence, capped
// to the maxItems highest-confidence entries.
func BuildCandidates(envelopes []Envelope, p *rules.Policy, maxItems int) []Candidate {
	checker := rules.NewChecker(p)

	proposed := make([]Candidate, 0, len(envelopes))
	for _, e := range envelopes {
		res := scoreWith(e, checker)
		if res.Blocked {
			continue
		}
		if res.Confidence < p.Thresholds.MinPropose {
			continue
		}
		proposed = append(proposed, Candidate{
			ID:         e.ID,
			Date:       e.Date,
			From:       e.From,
			Sender:     SenderShort(e.From),
			Subject:    e.Subject,
			Confidence: res.Confidence,
			Reasons:    res.Reasons,
		})
	}

	sort.SliceStable(proposed, func(i, j int) bool {
		if proposed[i].Confidence != proposed[j].Confidence {
			return proposed[i].Confidence < proposed[j].Confidence
		}
		return proposed[i].Date > proposed[j].Date
	})

	if maxItems <= 0 {
		return []Candidate{}
	}
	if len(proposed) > maxItems {
		proposed = proposed[len(proposed)-maxItems:]
	}
	return proposed
}

// SenderShort renders a compact sender label such as "writer@substack"
func SenderShort(from Address) string {
	addr := rules.Normalize(from.Addr)
	if addr == "" {
		if name := rules.Normalize(from.Name); name != "" {
			return name
		}
		return "unknown"
	}

	user, host, ok := strings.Cut(addr, "@")
	if !ok || user == "" || host == "" || strings.Contains(host, "@") {
		return addr
	}

	switch host {
	case "substack.com":
		return user + "@substack"
	case "mail.beehiiv.com":
		return user + "@beehiiv"
	}

	labels := strings.Split(host, ".")
	if len(labels) >= 2 {
		return user + "@" + strings.Join(labels[len(labels)-2:], ".")
	}
	return addr
}

package github

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mikey/clawtools/internal/ports"
)

// Lines renders the status as markdown bullet lines
func Lines(s *ports.ReviewStatus) []string {
	if !s.Authenticated {
		return []string{"- (GitHub CLI not authenticated: run `gh auth login`)"}
	}
	if len(s.Items) == 0 {
		return []string{"- Pending PR review requests: 0"}
	}

	lines := []string{fmt.Sprintf("- Pending PR review requests: %d", len(s.Items))}
	for _, it := range s.Items {
		repo := it.Repository
		if repo == "" {
			repo = "(unknown repo)"
		}
		title := it.Title
		if title == "" {
			title = "(no title)"
		}
		lines = append(lines, fmt.Sprintf("  - %s: %s — %s", repo, title, it.URL))
	}
	return lines
}

// WriteJSON renders {ok, count, items} or {ok: false, error}
func WriteJSON(w io.Writer, s *ports.ReviewStatus) error {
	if !s.Authenticated {
		return json.NewEncoder(w).Encode(struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}{OK: false, Error: NotAuthenticated})
	}

	items := make([]json.RawMessage, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, it.Raw)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		OK    bool              `json:"ok"`
		Count int               `json:"count"`
		Items []json.RawMessage `json:"items"`
	}{OK: true, Count: len(items), Items: items})
}

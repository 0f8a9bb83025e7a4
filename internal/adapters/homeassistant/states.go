package homeassistant

import (
	"sort"
	"strings"
)

// EntitySummary is the compact listing row for one entity
type EntitySummary struct {
	EntityID string  `json:"entity_id"`
	State    string  `json:"state"`
	Name     *string `json:"name,omitempty"`
}

// Summarize keeps the entities of domain (all when empty), sorted by id
func Summarize(states []State, domain string) []EntitySummary {
	out := make([]EntitySummary, 0, len(states))
	for _, s := range states {
		if domain != "" && !strings.HasPrefix(s.EntityID, domain+".") {
			continue
		}
		row := EntitySummary{EntityID: s.EntityID, State: s.State}
		if name, ok := s.Attributes["friendly_name"].(string); ok {
			row.Name = &name
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// Package inventory renders Home Assistant entities as markdown grouped by
// area and domain.
package inventory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mikey/clawtools/internal/adapters/homeassistant"
)

// Unassigned names the group for entities without an area
const Unassigned = "Unassigned"

// Inventory modes
const (
	ModeControl = "control"
	ModeFull    = "full"
)

// domainOrder is the display order of the controllable domains. Other
// domains sort after these, alphabetically.
var domainOrder = []string{
	"light", "switch", "climate", "fan", "cover", "lock",
	"media_player", "vacuum", "scene", "script", "automation", "input_boolean",
}

var controlDomains = toSet(domainOrder)

var niceDomains = toSet([]string{
	"light", "climate", "fan", "cover", "lock", "media_player", "vacuum", "scene", "script",
})

// Entity is a state enriched with its domain and area
type Entity struct {
	EntityID string
	Domain   string
	State    string
	Name     string
	Area     string
}

// Enrich pairs states with the area names aligned to them
func Enrich(states []homeassistant.State, areas []string) []Entity {
	out := make([]Entity, len(states))
	for i, s := range states {
		area := ""
		if i < len(areas) {
			area = areas[i]
		}
		if area == "" {
			area = Unassigned
		}
		out[i] = Entity{
			EntityID: s.EntityID,
			Domain:   DomainOf(s.EntityID),
			State:    s.State,
			Name:     s.FriendlyName(),
			Area:     area,
		}
	}
	return out
}

// DomainOf returns the part of an entity id before the first dot
func DomainOf(entityID string) string {
	domain, _, found := strings.Cut(entityID, ".")
	if !found {
		return "(none)"
	}
	return domain
}

// Control keeps entities in the controllable domains
func Control(entities []Entity) []Entity {
	var out []Entity
	for _, e := range entities {
		if _, ok := controlDomains[e.Domain]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Nice keeps what people usually control: the common non-switch domains
// plus switches whose name starts with a room label like "[Kitchen]",
// leaving out internet access, child lock and schedule switches.
func Nice(entities []Entity) []Entity {
	var out []Entity
	for _, e := range Control(entities) {
		if _, ok := niceDomains[e.Domain]; ok {
			out = append(out, e)
			continue
		}
		if e.Domain != "switch" {
			continue
		}
		name := strings.ToLower(e.Name)
		if !strings.HasPrefix(name, "[") ||
			strings.Contains(name, "internet access") ||
			strings.Contains(name, "child lock") ||
			strings.Contains(name, "schedule") {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Document describes one markdown file
type Document struct {
	Title     string
	Source    string
	Generated time.Time
	// Mode is shown in the summary when set
	Mode string
	// Areas lists every configured area when not nil
	Areas []string
	// Escape replaces | in names and states
	Escape bool
}

// Render writes the grouped markdown for entities
func Render(doc Document, entities []Entity) string {
	byArea := map[string][]Entity{}
	for _, e := range entities {
		byArea[e.Area] = append(byArea[e.Area], e)
	}
	areaNames := make([]string, 0, len(byArea))
	for a := range byArea {
		areaNames = append(areaNames, a)
	}
	sort.Slice(areaNames, func(i, j int) bool {
		a, b := areaNames[i], areaNames[j]
		if (a == Unassigned) != (b == Unassigned) {
			return b == Unassigned
		}
		return a < b
	})

	generated := doc.Generated.UTC().Format("2006-01-02T15:04:05.000Z")
	lines := []string{"# " + doc.Title, ""}
	if doc.Areas != nil {
		areaList := strings.Join(doc.Areas, ", ")
		if areaList == "" {
			areaList = "(none)"
		}
		lines = append(lines,
			"Source: "+doc.Source,
			"Generated: "+generated,
			"",
			"## Areas",
			"- "+areaList,
			"",
			"## Summary",
			fmt.Sprintf("- Entities: **%d**", len(entities)),
			fmt.Sprintf("- Areas with entities: **%d**", len(areaNames)),
			"",
		)
	} else {
		lines = append(lines,
			"Generated: "+generated,
			"Source: "+doc.Source,
			"",
			"## Summary",
			fmt.Sprintf("- Entities (mode=%s): **%d**", doc.Mode, len(entities)),
			fmt.Sprintf("- Areas: **%d**", len(areaNames)),
			"",
		)
	}

	esc := func(s string) string { return s }
	if doc.Escape {
		esc = func(s string) string { return strings.ReplaceAll(s, "|", `\|`) }
	}

	for _, area := range areaNames {
		ents := byArea[area]
		lines = append(lines, fmt.Sprintf("## %s (%d)", area, len(ents)))

		byDomain := map[string][]Entity{}
		for _, e := range ents {
			byDomain[e.Domain] = append(byDomain[e.Domain], e)
		}
		domains := make([]string, 0, len(byDomain))
		for d := range byDomain {
			domains = append(domains, d)
		}
		sort.Slice(domains, func(i, j int) bool {
			ri, rj := domainRank(domains[i]), domainRank(domains[j])
			if ri != rj {
				return ri < rj
			}
			return domains[i] < domains[j]
		})

		for _, d := range domains {
			items := byDomain[d]
			sort.Slice(items, func(i, j int) bool { return items[i].EntityID < items[j].EntityID })
			lines = append(lines, fmt.Sprintf("### %s (%d)", d, len(items)))
			for _, e := range items {
				name := ""
				if e.Name != "" && e.Name != e.EntityID {
					name = " — " + esc(e.Name)
				}
				lines = append(lines, fmt.Sprintf("- `%s`%s = **%s**", e.EntityID, name, esc(e.State)))
			}
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func domainRank(d string) int {
	for i, o := range domainOrder {
		if o == d {
			return i
		}
	}
	return len(domainOrder)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

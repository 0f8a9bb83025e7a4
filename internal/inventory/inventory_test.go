package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikey/clawtools/internal/adapters/homeassistant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func state(id, value, name string) homeassistant.State {
	attrs := map[string]interface{}{}
	if name != "" {
		attrs["friendly_name"] = name
	}
	return homeassistant.State{EntityID: id, State: value, Attributes: attrs}
}

type fakeSource struct {
	states    []homeassistant.State
	areaNames []string
	areas     []string
	areaErr   error
}

func (f *fakeSource) URL() string { return "http://ha.test:8123" }
func (f *fakeSource) States(ctx context.Context) ([]homeassistant.State, error) {
	return f.states, nil
}
func (f *fakeSource) AreaNames(ctx context.Context) ([]string, error) {
	return f.areaNames, f.areaErr
}
func (f *fakeSource) Areas(ctx context.Context) ([]string, error) { return f.areas, nil }

func sampleSource() *fakeSource {
	return &fakeSource{
		states: []homeassistant.State{
			state("switch.kitchen_plug", "off", "[Kitchen] Plug"),
			state("light.kitchen", "on", "Kitchen Light"),
			state("sensor.temp", "21", "Temperature"),
			state("switch.router_internet_access", "on", "[Office] Internet Access"),
			state("light.hall", "off", "light.hall"),
			state("automation.morning", "on", "Morning | Routine"),
			state("switch.pump", "on", "Pump"),
		},
		areaNames: []string{"Kitchen", "Kitchen", "Kitchen", "Office", "", "", "Basement"},
		areas:     []string{"kitchen", "office", "basement"},
	}
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "light", DomainOf("light.kitchen"))
	assert.Equal(t, "(none)", DomainOf("weird"))
}

func TestFilters(t *testing.T) {
	src := sampleSource()
	entities := Enrich(src.states, src.areaNames)
	assert.Equal(t, Unassigned, entities[4].Area)

	control := Control(entities)
	assert.Len(t, control, 6)

	var nice []string
	for _, e := range Nice(entities) {
		nice = append(nice, e.EntityID)
	}
	assert.Equal(t, []string{"switch.kitchen_plug", "light.kitchen", "light.hall"}, nice)
}

func TestRender(t *testing.T) {
	src := sampleSource()
	entities := Control(Enrich(src.states, src.areaNames))
	out := Render(Document{
		Title:     "Home Assistant Inventory",
		Source:    "http://ha.test:8123",
		Generated: time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC),
		Mode:      ModeControl,
	}, entities)

	assert.True(t, strings.HasPrefix(out, "# Home Assistant Inventory\n\nGenerated: 2026-10-19T06:00:00.000Z\nSource: http://ha.test:8123\n"))
	assert.Contains(t, out, "- Entities (mode=control): **6**")
	assert.Contains(t, out, "- Areas: **4**")

	basement := strings.Index(out, "## Basement (1)")
	kitchen := strings.Index(out, "## Kitchen (2)")
	office := strings.Index(out, "## Office (1)")
	unassigned := strings.Index(out, "## Unassigned (2)")
	assert.True(t, basement >= 0 && basement < kitchen && kitchen < office && office < unassigned, out)

	lightSection := strings.Index(out, "### light (1)\n- `light.kitchen` — Kitchen Light = **on**")
	switchSection := strings.Index(out, "### switch (1)\n- `switch.kitchen_plug` — [Kitchen] Plug = **off**")
	assert.True(t, lightSection >= 0 && switchSection > lightSection, out)

	assert.Contains(t, out, "- `light.hall` = **off**")
	assert.Contains(t, out, "- `automation.morning` — Morning | Routine = **on**")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestRenderEscapesPipes(t *testing.T) {
	entities := []Entity{{EntityID: "script.a", Domain: "script", State: "x|y", Name: "A | B", Area: "Hall"}}
	out := Render(Document{Title: "T", Source: "s", Areas: []string{}, Escape: true}, entities)

	assert.Contains(t, out, "## Areas\n- (none)\n")
	assert.Contains(t, out, "- Areas with entities: **1**")
	assert.Contains(t, out, "- `script.a` — A \\| B = **x\\|y**")
}

func TestWriteOverview(t *testing.T) {
	out := filepath.Join(t.TempDir(), "memory", "homeassistant-overview.md")
	svc := NewService(sampleSource(), zap.NewNop())

	require.NoError(t, svc.WriteOverview(context.Background(), out, ModeFull))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- Entities (mode=full): **7**")
	assert.Contains(t, string(data), "### sensor (1)")

	assert.Error(t, svc.WriteOverview(context.Background(), out, "partial"))

	src := sampleSource()
	src.areaNames = src.areaNames[:2]
	err = NewService(src, zap.NewNop()).WriteOverview(context.Background(), out, ModeControl)
	assert.True(t, errors.Is(err, ErrAreaMismatch))
}

func TestRefreshContext(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "references")
	src := sampleSource()
	src.areaErr = errors.New("template disabled")

	paths, err := NewService(src, zap.NewNop()).RefreshContext(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "inventory.md"), filepath.Join(dir, "inventory-nice.md")}, paths)

	control, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(control), "# Home Assistant Control Inventory")
	assert.Contains(t, string(control), "- kitchen, office, basement")
	assert.Contains(t, string(control), "## Unassigned (6)")
	assert.Contains(t, string(control), "Morning \\| Routine")

	nice, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(nice), "- Entities: **3**")
	assert.NotContains(t, string(nice), "switch.pump")
}

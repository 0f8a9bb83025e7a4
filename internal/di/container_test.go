package di

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mikey/clawtools/internal/adapters/homeassistant"
	"github.com/mikey/clawtools/internal/briefing"
	"github.com/mikey/clawtools/internal/core"
	"github.com/mikey/clawtools/internal/costs"
	"github.com/mikey/clawtools/internal/inventory"
	"github.com/mikey/clawtools/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"
)

func TestBuildTriageContainer(t *testing.T) {
	dir := t.TempDir()
	opts := &Options{}
	opts.Set("triage.rules_path", filepath.Join(dir, "rules.json"))
	opts.Set("triage.state_path", filepath.Join(dir, "state.json"))

	container, err := BuildTriageContainer(opts)
	require.NoError(t, err)

	err = container.Invoke(func(svc *core.TriageService, ruleStore core.RuleStore, settings core.TriageSettings) {
		assert.NotNil(t, svc)
		assert.Equal(t, filepath.Join(dir, "rules.json"), ruleStore.Path())
		assert.Equal(t, "default", settings.Account)
		assert.Equal(t, 200, settings.Limit)
	})
	require.NoError(t, err)
}

func TestBuildTriageContainerUnknownBackend(t *testing.T) {
	opts := &Options{}
	opts.Set("mail.backend", "pigeon")

	container, err := BuildTriageContainer(opts)
	require.NoError(t, err)

	err = container.Invoke(func(svc *core.TriageService) {})
	require.Error(t, err)
	assert.Contains(t, dig.RootCause(err).Error(), "unsupported mail backend")
}

func TestBuildCostsContainer(t *testing.T) {
	opts := &Options{}
	opts.Set("costs.root", t.TempDir())
	opts.Set("costs.price_cache.type", "memory")

	container, err := BuildCostsContainer(opts)
	require.NoError(t, err)

	err = container.Invoke(func(svc *costs.Service) error {
		r, err := svc.Report(context.Background(), costs.Request{Mode: "ever", Timezone: "UTC"})
		if err != nil {
			return err
		}
		assert.Equal(t, 0, r.FilesScanned)
		return nil
	})
	require.NoError(t, err)
}

func TestBuildBriefingContainerDegrades(t *testing.T) {
	opts := &Options{}
	opts.Set("mail.backend", "imap")
	opts.Set("costs.price_cache.type", "carrier-pigeon")

	container, err := BuildBriefingContainer(opts)
	require.NoError(t, err)

	err = container.Invoke(func(c *briefing.Composer, mail core.MailClient, sender ports.MailSender, priceCache ports.PriceCache) {
		assert.NotNil(t, c)
		assert.Nil(t, mail)
		assert.Nil(t, sender)
		assert.NotNil(t, priceCache)
	})
	require.NoError(t, err)
}

func TestBuildHomeAssistantContainer(t *testing.T) {
	t.Setenv("HA_TOKEN", "")
	t.Setenv("CLAWTOOLS_HOMEASSISTANT_TOKEN", "")

	opts := &Options{}
	opts.Set("homeassistant.secrets_dir", t.TempDir())
	container, err := BuildHomeAssistantContainer(opts)
	require.NoError(t, err)

	err = container.Invoke(func(svc *inventory.Service) {})
	require.Error(t, err)
	assert.True(t, errors.Is(dig.RootCause(err), homeassistant.ErrMissingToken))

	opts = &Options{}
	opts.Set("homeassistant.token", "secret")
	opts.Set("homeassistant.url", "http://ha.test:8123/")
	container, err = BuildHomeAssistantContainer(opts)
	require.NoError(t, err)

	err = container.Invoke(func(c *homeassistant.Client, svc *inventory.Service) {
		assert.Equal(t, "http://ha.test:8123", c.URL())
		assert.NotNil(t, svc)
	})
	require.NoError(t, err)
}

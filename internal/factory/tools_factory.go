package factory

import (
	"github.com/mikey/clawtools/internal/adapters/github"
	"github.com/mikey/clawtools/internal/adapters/homeassistant"
	"github.com/mikey/clawtools/internal/adapters/openrouter"
	"github.com/mikey/clawtools/internal/adapters/shell"
	"github.com/mikey/clawtools/internal/config"
	"go.uber.org/zap"
)

// ToolsFactory creates the clients for the external services the tools talk to
type ToolsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewToolsFactory creates a new tools factory
func NewToolsFactory(cfg *config.Config, logger *zap.Logger) *ToolsFactory {
	return &ToolsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateReviewLister creates the gh-backed review lister. A configured
// token is passed to gh as GH_TOKEN.
func (f *ToolsFactory) CreateReviewLister() *github.Client {
	gc := f.cfg.GetGitHub()
	var env []string
	if gc.Token != "" {
		env = append(env, "GH_TOKEN="+gc.Token)
	}
	return github.NewClient(gc.GhBin, gc.Limit, shell.NewExecRunner(f.logger, env...), f.logger)
}

// CreatePriceFetcher creates the OpenRouter pricing client
func (f *ToolsFactory) CreatePriceFetcher() *openrouter.Client {
	oc := f.cfg.GetOpenRouter()
	return openrouter.NewClient(oc.APIKey, oc.BaseURL, oc.Timeout, f.logger)
}

// CreateHomeAssistantClient resolves credentials and creates the REST client
func (f *ToolsFactory) CreateHomeAssistantClient() (*homeassistant.Client, error) {
	hc := f.cfg.GetHomeAssistant()
	creds, err := homeassistant.ResolveCredentials(hc.URL, hc.Token, hc.SecretsDir, hc.DefaultURL)
	if err != nil {
		return nil, err
	}
	return homeassistant.NewClient(creds, 0, f.logger), nil
}

package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/clawtools/internal/config"
	"github.com/mikey/clawtools/internal/core"
	"github.com/mikey/clawtools/internal/factory"
	"github.com/mikey/clawtools/internal/rules"
	"github.com/mikey/clawtools/internal/session"
)

// BuildTriageContainer creates the container for newsletter-triage
func BuildTriageContainer(opts *Options) (*dig.Container, error) {
	container, err := buildBaseContainer(opts)
	if err != nil {
		return nil, err
	}

	// Register mail client
	if err := container.Provide(func(f *factory.MailFactory) (core.MailClient, error) {
		return f.CreateMailClient(time.Local)
	}); err != nil {
		return nil, err
	}

	// Register rule and state stores
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.RuleStore {
		return rules.NewFileStore(cfg.GetTriage().RulesPath, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.StateStore {
		return session.NewFileStore(cfg.GetTriage().StatePath, logger)
	}); err != nil {
		return nil, err
	}

	// Register triage settings
	if err := container.Provide(func(cfg *config.Config) core.TriageSettings {
		tc := cfg.GetTriage()
		return core.TriageSettings{
			Account:  tc.Account,
			Limit:    tc.Limit,
			MaxItems: tc.MaxItems,
		}
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(core.NewTriageService); err != nil {
		return nil, err
	}

	return container, nil
}

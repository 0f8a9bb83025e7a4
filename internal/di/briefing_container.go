package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/clawtools/internal/briefing"
	"github.com/mikey/clawtools/internal/config"
	"github.com/mikey/clawtools/internal/core"
	"github.com/mikey/clawtools/internal/costs"
	"github.com/mikey/clawtools/internal/factory"
	"github.com/mikey/clawtools/internal/ports"
)

// BuildBriefingContainer creates the container for daily-briefing. Mail
// and pricing collaborators that cannot be built are left out so the
// briefing still renders.
func BuildBriefingContainer(opts *Options) (*dig.Container, error) {
	container, err := buildBaseContainer(opts)
	if err != nil {
		return nil, err
	}
	if err := provideCosts(container, false); err != nil {
		return nil, err
	}

	// Register briefing settings
	if err := container.Provide(func(cfg *config.Config) briefing.Settings {
		bc := cfg.GetBriefing()
		return briefing.Settings{
			Timezone:    bc.Timezone,
			Account:     bc.Account,
			Folder:      bc.Folder,
			PageSize:    bc.PageSize,
			Top:         bc.Top,
			MemoryDir:   bc.MemoryDir,
			FetchPrices: bc.FetchPrices,
		}
	}); err != nil {
		return nil, err
	}

	// Register mail client
	if err := container.Provide(func(f *factory.MailFactory, s briefing.Settings, logger *zap.Logger) core.MailClient {
		loc, err := time.LoadLocation(s.Timezone)
		if err != nil {
			loc = time.Local
		}
		client, err := f.CreateMailClient(loc)
		if err != nil {
			logger.Warn("Mail backend unavailable", zap.Error(err))
			return nil
		}
		return client
	}); err != nil {
		return nil, err
	}

	// Register cost reporter
	if err := container.Provide(func(s *costs.Service) briefing.CostReporter {
		return s
	}); err != nil {
		return nil, err
	}

	// Register review lister and mail sender
	if err := container.Provide(func(f *factory.ToolsFactory) ports.ReviewLister {
		return f.CreateReviewLister()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.MailFactory) ports.MailSender {
		return f.CreateMailSender()
	}); err != nil {
		return nil, err
	}

	// Register composer
	if err := container.Provide(briefing.NewComposer); err != nil {
		return nil, err
	}

	return container, nil
}

package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/clawtools/internal/config"
	"github.com/mikey/clawtools/internal/factory"
	"github.com/mikey/clawtools/internal/logging"
	"github.com/mikey/clawtools/internal/utils"
)

// Options are the flags every binary shares
type Options struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Overrides are applied on top of the loaded configuration
	Overrides map[string]interface{}
}

// Set records a configuration override
func (o *Options) Set(key string, value interface{}) {
	if o.Overrides == nil {
		o.Overrides = map[string]interface{}{}
	}
	o.Overrides[key] = value
}

// buildBaseContainer registers configuration, logging and the factories
func buildBaseContainer(opts *Options) (*dig.Container, error) {
	container := dig.New()

	// Register options
	if err := container.Provide(func() *Options { return opts }); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(opts *Options) (*config.Config, error) {
		cfg, err := config.NewWithFile(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		if opts.Verbose {
			cfg.Set("logging.level", "debug")
		}
		if opts.JSONLog {
			cfg.Set("logging.format", "json")
		}
		for key, value := range opts.Overrides {
			cfg.Set(key, value)
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(cfg *config.Config) (*zap.Logger, error) {
		logger, err := logging.InitLogger(cfg)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}
		return logger, nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewToolsFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

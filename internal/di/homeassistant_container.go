package di

import (
	"go.uber.org/dig"

	"github.com/mikey/clawtools/internal/adapters/homeassistant"
	"github.com/mikey/clawtools/internal/factory"
	"github.com/mikey/clawtools/internal/inventory"
)

// BuildHomeAssistantContainer creates the container for the ha tool. The
// client fails to resolve when no token is configured.
func BuildHomeAssistantContainer(opts *Options) (*dig.Container, error) {
	container, err := buildBaseContainer(opts)
	if err != nil {
		return nil, err
	}

	// Register REST client
	if err := container.Provide(func(f *factory.ToolsFactory) (*homeassistant.Client, error) {
		return f.CreateHomeAssistantClient()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c *homeassistant.Client) inventory.Source {
		return c
	}); err != nil {
		return nil, err
	}

	// Register inventory service
	if err := container.Provide(inventory.NewService); err != nil {
		return nil, err
	}

	return container, nil
}

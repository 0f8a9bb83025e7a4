package di

import (
	"go.uber.org/dig"

	"github.com/mikey/clawtools/internal/factory"
	"github.com/mikey/clawtools/internal/ports"
)

// BuildReviewsContainer creates the container for github-reviews
func BuildReviewsContainer(opts *Options) (*dig.Container, error) {
	container, err := buildBaseContainer(opts)
	if err != nil {
		return nil, err
	}

	// Register review lister
	if err := container.Provide(func(f *factory.ToolsFactory) ports.ReviewLister {
		return f.CreateReviewLister()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

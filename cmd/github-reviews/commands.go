package main

import (
	"context"
	"fmt"
	"io"

	"github.com/mikey/clawtools/internal/adapters/github"
	"github.com/mikey/clawtools/internal/cli"
	"github.com/mikey/clawtools/internal/di"
	"github.com/mikey/clawtools/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd(ctx context.Context, stdout io.Writer) *cobra.Command {
	var (
		opts   di.Options
		asJSON bool
	)

	rootCmd := &cobra.Command{
		Use:   "github-reviews",
		Short: "List open pull requests that request your review",
		Long: `github-reviews asks the gh CLI for open pull requests requesting your review.
An unauthenticated gh is reported on stdout and is not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.BuildReviewsContainer(&opts)
			if err != nil {
				return fmt.Errorf("failed to build dependency container: %w", err)
			}
			return container.Invoke(func(lister ports.ReviewLister, logger *zap.Logger) error {
				defer logger.Sync()

				status, err := lister.ListReviewRequests(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return github.WriteJSON(stdout, status)
				}
				for _, line := range github.Lines(status) {
					fmt.Fprintln(stdout, line)
				}
				return nil
			})
		},
	}
	cli.BindGlobalFlags(rootCmd, &opts)
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Print {ok, count, items} JSON")

	return rootCmd
}

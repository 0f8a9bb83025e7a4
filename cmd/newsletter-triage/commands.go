package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mikey/clawtools/internal/cli"
	"github.com/mikey/clawtools/internal/core"
	"github.com/mikey/clawtools/internal/di"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type triageFlags struct {
	opts     di.Options
	core     core.Options
	rules    string
	source   string
	maxItems int
}

func newRootCmd(ctx context.Context, stdout io.Writer) *cobra.Command {
	flags := &triageFlags{}

	rootCmd := &cobra.Command{
		Use:   "newsletter-triage",
		Short: "Propose newsletters to move out of the inbox and act on replies",
		Long: `newsletter-triage scores the newest inbox messages against the rules file,
stores a numbered proposal and moves or teaches on free-text replies.

Without a subcommand it runs propose.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cli.Fail(2, fmt.Errorf("unknown command: %s", args[0]))
			}
			return runPropose(ctx, cmd, flags, stdout)
		},
	}
	cli.BindGlobalFlags(rootCmd, &flags.opts)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.core.Account, "account", "", "Mail account name")
	pf.StringVar(&flags.source, "source", "", "Folder to scan (defaults to the rules file)")
	pf.IntVar(&flags.core.Limit, "limit", 0, "Envelopes to scan")
	pf.IntVar(&flags.maxItems, "max", 20, "Maximum candidates to propose (0 proposes nothing)")
	pf.StringVar(&flags.rules, "rules", "", "Path to the rules file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "propose",
		Short: "Build and store a new proposal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(ctx, cmd, flags, stdout)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "reply <text>",
		Short: "Answer the last proposal: move all, move 1 3, not 2, always 4",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReply(ctx, cmd, flags, strings.Join(args, " "), stdout)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "apply <id>...",
		Short: "Move the given message ids right away",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(ctx, cmd, flags, args, stdout)
		},
	})

	return rootCmd
}

func (f *triageFlags) options(cmd *cobra.Command) (*di.Options, core.Options) {
	cli.OverrideString(cmd, &f.opts, "rules", "triage.rules_path")
	cli.OverrideString(cmd, &f.opts, "max", "triage.max_items")
	opts := f.core
	opts.SourceFolder = f.source
	return &f.opts, opts
}

func withService(cmd *cobra.Command, f *triageFlags, fn func(svc *core.TriageService, logger *zap.Logger, opts core.Options) error) error {
	diOpts, opts := f.options(cmd)
	container, err := di.BuildTriageContainer(diOpts)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	return container.Invoke(func(svc *core.TriageService, logger *zap.Logger) error {
		defer logger.Sync()
		return fn(svc, logger, opts)
	})
}

func runPropose(ctx context.Context, cmd *cobra.Command, f *triageFlags, stdout io.Writer) error {
	return withService(cmd, f, func(svc *core.TriageService, logger *zap.Logger, opts core.Options) error {
		res, err := svc.Propose(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, res.Text)
		return nil
	})
}

func runReply(ctx context.Context, cmd *cobra.Command, f *triageFlags, text string, stdout io.Writer) error {
	return withService(cmd, f, func(svc *core.TriageService, logger *zap.Logger, opts core.Options) error {
		res, err := svc.Reply(ctx, strings.TrimSpace(text), opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, res.Message)
		switch res.Status {
		case core.ReplyInvalidItem:
			return cli.Exit(1)
		case core.ReplyNotUnderstood:
			return cli.Exit(2)
		}
		return nil
	})
}

func runApply(ctx context.Context, cmd *cobra.Command, f *triageFlags, ids []string, stdout io.Writer) error {
	return withService(cmd, f, func(svc *core.TriageService, logger *zap.Logger, opts core.Options) error {
		res, err := svc.Apply(ctx, ids, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, res.Message)
		return nil
	})
}

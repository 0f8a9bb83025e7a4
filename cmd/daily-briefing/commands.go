package main

import (
	"context"
	"fmt"
	"io"

	"github.com/mikey/clawtools/internal/briefing"
	"github.com/mikey/clawtools/internal/cli"
	"github.com/mikey/clawtools/internal/config"
	"github.com/mikey/clawtools/internal/di"
	"github.com/mikey/clawtools/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type briefingFlags struct {
	opts          di.Options
	tz            string
	account       string
	memoryDir     string
	mailTo        []string
	subject       string
	noFetchPrices bool
}

func newRootCmd(ctx context.Context, stdout io.Writer) *cobra.Command {
	flags := &briefingFlags{}

	rootCmd := &cobra.Command{
		Use:   "daily-briefing",
		Short: "Print the daily briefing draft as markdown",
		Long: `daily-briefing collects today's inbox, yesterday's journal summary,
yesterday's model costs and pending GitHub review requests into one markdown
draft. Sections whose source fails fall back to a placeholder line.

With --mail-to (or briefing.mail_to) the draft is also sent over SMTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ctx, cmd, flags, stdout)
		},
	}
	cli.BindGlobalFlags(rootCmd, &flags.opts)

	f := rootCmd.Flags()
	f.StringVar(&flags.tz, "tz", "", "IANA timezone for today and yesterday")
	f.StringVar(&flags.account, "account", "", "Mail account name")
	f.StringVar(&flags.memoryDir, "memory-dir", "", "Directory holding YYYY-MM-DD.md journal files")
	f.StringSliceVar(&flags.mailTo, "mail-to", nil, "Also mail the briefing to these addresses")
	f.StringVar(&flags.subject, "subject", "", "Mail subject prefix")
	f.BoolVar(&flags.noFetchPrices, "no-fetch-prices", false, "Cost with the cached price table only")

	return rootCmd
}

func run(ctx context.Context, cmd *cobra.Command, f *briefingFlags, stdout io.Writer) error {
	cli.OverrideString(cmd, &f.opts, "tz", "briefing.timezone")
	cli.OverrideString(cmd, &f.opts, "account", "briefing.account")
	cli.OverrideString(cmd, &f.opts, "memory-dir", "briefing.memory_dir")
	cli.OverrideString(cmd, &f.opts, "subject", "briefing.subject")
	if cmd.Flags().Changed("mail-to") {
		f.opts.Set("briefing.mail_to", f.mailTo)
	}
	if f.noFetchPrices {
		f.opts.Set("briefing.fetch_prices", false)
	}

	container, err := di.BuildBriefingContainer(&f.opts)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return container.Invoke(func(cfg *config.Config, composer *briefing.Composer, priceCache ports.PriceCache, logger *zap.Logger) error {
		defer logger.Sync()
		defer priceCache.Close()

		b, err := composer.Compose(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, b.Markdown)

		bc := cfg.GetBriefing()
		if len(bc.MailTo) == 0 {
			return nil
		}
		return composer.Deliver(ctx, b, cfg.GetSMTP().From, bc.MailTo, bc.Subject)
	})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mikey/clawtools/internal/cli"
	"github.com/mikey/clawtools/internal/config"
	"github.com/mikey/clawtools/internal/costs"
	"github.com/mikey/clawtools/internal/di"
	"github.com/mikey/clawtools/internal/ports"
	"github.com/mikey/clawtools/internal/usage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const usageRange = "Usage: costs range YYYY-MM-DD YYYY-MM-DD [--tz Europe/Berlin]"

type costsFlags struct {
	opts        di.Options
	tz          string
	root        string
	fetchPrices bool
	json        bool
}

func newRootCmd(ctx context.Context, stdout io.Writer) *cobra.Command {
	flags := &costsFlags{}

	rootCmd := &cobra.Command{
		Use:   "costs [today|yesterday|week|last7|ever|range START END]",
		Short: "Report token usage and cost from agent session logs",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ctx, cmd, flags, args, stdout)
		},
	}
	cli.BindGlobalFlags(rootCmd, &flags.opts)

	f := rootCmd.Flags()
	f.StringVar(&flags.tz, "tz", "", "IANA timezone for day boundaries (default Europe/Berlin or $OPENCLAW_TZ)")
	f.StringVar(&flags.root, "root", "", "Agents directory holding <agent>/sessions/*.jsonl")
	f.BoolVar(&flags.fetchPrices, "fetch-prices", false, "Refresh the OpenRouter price cache first")
	f.BoolVar(&flags.json, "json", false, "Print the report as JSON")

	return rootCmd
}

func run(ctx context.Context, cmd *cobra.Command, f *costsFlags, args []string, stdout io.Writer) error {
	req := costs.Request{Mode: usage.ModeToday, FetchPrices: f.fetchPrices}
	if len(args) > 0 {
		req.Mode = args[0]
	}
	if req.Mode == usage.ModeRange {
		if len(args) < 3 {
			return cli.Fail(1, errors.New(usageRange))
		}
		req.Start, req.End = args[1], args[2]
	}

	cli.OverrideString(cmd, &f.opts, "tz", "costs.timezone")
	cli.OverrideString(cmd, &f.opts, "root", "costs.root")

	container, err := di.BuildCostsContainer(&f.opts)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return container.Invoke(func(cfg *config.Config, svc *costs.Service, priceCache ports.PriceCache, logger *zap.Logger) error {
		defer logger.Sync()
		defer priceCache.Close()

		req.Timezone = cfg.GetCosts().Timezone
		report, err := svc.Report(ctx, req)
		if err != nil {
			return err
		}
		if f.json {
			return usage.WriteJSON(stdout, report)
		}
		return usage.WriteText(stdout, report)
	})
}

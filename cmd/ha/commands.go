package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mikey/clawtools/internal/adapters/homeassistant"
	"github.com/mikey/clawtools/internal/cli"
	"github.com/mikey/clawtools/internal/config"
	"github.com/mikey/clawtools/internal/di"
	"github.com/mikey/clawtools/internal/inventory"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// exitHTTP is the exit code for failed API requests
const exitHTTP = 2

type haApp struct {
	ctx    context.Context
	stdout io.Writer
	opts   di.Options
}

func newRootCmd(ctx context.Context, stdout io.Writer) *cobra.Command {
	app := &haApp{ctx: ctx, stdout: stdout}

	rootCmd := &cobra.Command{
		Use:   "ha",
		Short: "Home Assistant REST helper",
		Long: `ha talks to the Home Assistant REST API.

The URL comes from HA_URL, <secrets>/ha_url or http://homeassistant.local:8123.
The token comes from HA_TOKEN or <secrets>/ha_token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cli.BindGlobalFlags(rootCmd, &app.opts)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withClient(func(c *homeassistant.Client) (interface{}, error) {
				return c.Ping(app.ctx)
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "state <entity_id>",
		Short: "Print one entity",
		Args:  usageArgs(1, 1, "Usage: ha state <entity_id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withClient(func(c *homeassistant.Client) (interface{}, error) {
				return c.State(app.ctx, args[0])
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "call <domain> <service> [json]",
		Short: "Call a service with an optional JSON payload",
		Args:  usageArgs(2, 3, "Usage: ha call <domain> <service> '<json>'"),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data interface{}
			if len(args) == 3 && args[2] != "" {
				if err := json.Unmarshal([]byte(args[2]), &data); err != nil {
					return cli.Fail(1, errors.New("Invalid JSON payload."))
				}
			}
			return app.withClient(func(c *homeassistant.Client) (interface{}, error) {
				return c.CallService(app.ctx, args[0], args[1], data)
			})
		},
	})

	var domain string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List entities as {entity_id, state, name}",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withClient(func(c *homeassistant.Client) (interface{}, error) {
				states, raw, err := c.ListStates(app.ctx)
				if err != nil {
					return nil, err
				}
				if states == nil {
					return raw, nil
				}
				return homeassistant.Summarize(states, domain), nil
			})
		},
	}
	listCmd.Flags().StringVar(&domain, "domain", "", "Only entities of this domain")
	rootCmd.AddCommand(listCmd)

	var (
		outPath string
		mode    string
	)
	inventoryCmd := &cobra.Command{
		Use:   "inventory",
		Short: "Write the markdown inventory grouped by area and domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withInventory(func(svc *inventory.Service, cfg *config.Config) error {
				path := outPath
				if path == "" {
					path = cfg.GetHomeAssistant().InventoryPath
				}
				if err := svc.WriteOverview(app.ctx, path, mode); err != nil {
					return err
				}
				fmt.Fprintln(app.stdout, path)
				return nil
			})
		},
	}
	inventoryCmd.Flags().StringVar(&outPath, "out", "", "Output file")
	inventoryCmd.Flags().StringVar(&mode, "mode", inventory.ModeControl, "control or full")
	rootCmd.AddCommand(inventoryCmd)

	var outDir string
	refreshCmd := &cobra.Command{
		Use:   "refresh-context",
		Short: "Write inventory.md and inventory-nice.md for the assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withInventory(func(svc *inventory.Service, cfg *config.Config) error {
				dir := outDir
				if dir == "" {
					dir = cfg.GetHomeAssistant().ContextDir
				}
				written, err := svc.RefreshContext(app.ctx, dir)
				if err != nil {
					return err
				}
				for _, path := range written {
					fmt.Fprintln(app.stdout, "WROTE", path)
				}
				return nil
			})
		},
	}
	refreshCmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory")
	rootCmd.AddCommand(refreshCmd)

	return rootCmd
}

func usageArgs(lo, hi int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < lo || len(args) > hi {
			return errors.New(usage)
		}
		return nil
	}
}

// withClient runs a REST command and prints its result as indented JSON.
// Request failures exit with exitHTTP.
func (a *haApp) withClient(fn func(c *homeassistant.Client) (interface{}, error)) error {
	container, err := di.BuildHomeAssistantContainer(&a.opts)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return unwrapDig(container.Invoke(func(c *homeassistant.Client, logger *zap.Logger) error {
		defer logger.Sync()

		out, err := fn(c)
		if err != nil {
			return cli.Fail(exitHTTP, err)
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	}))
}

func (a *haApp) withInventory(fn func(svc *inventory.Service, cfg *config.Config) error) error {
	container, err := di.BuildHomeAssistantContainer(&a.opts)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return unwrapDig(container.Invoke(func(svc *inventory.Service, cfg *config.Config, logger *zap.Logger) error {
		defer logger.Sync()
		return fn(svc, cfg)
	}))
}

// unwrapDig reports provider failures such as a missing token by their cause
func unwrapDig(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return dig.RootCause(err)
}

// Package himalaya lists and moves mail through the himalaya CLI.
package himalaya

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mikey/clawtools/internal/core"
	"github.com/mikey/clawtools/internal/ports"
	"go.uber.org/zap"
)

// DefaultBinary is looked up on PATH
const DefaultBinary = "himalaya"

// Client implements core.MailClient on top of the himalaya CLI
type Client struct {
	bin    string
	runner ports.CommandRunner
	logger *zap.Logger
}

// NewClient creates a new himalaya client
func NewClient(bin string, runner ports.CommandRunner, logger *zap.Logger) *Client {
	if bin == "" {
		bin = DefaultBinary
	}
	return &Client{bin: bin, runner: runner, logger: logger}
}

// ListArgs builds the envelope listing command line for q
func ListArgs(q core.ListQuery) []string {
	args := []string{
		"envelope", "list",
		"--account", q.Account,
		"--folder", q.Folder,
		"--output", "json",
		"--page-size", strconv.Itoa(q.PageSize),
	}

	var filters [][]string
	if q.On != "" {
		filters = append(filters, []string{"date", q.On})
	}
	if q.Unseen {
		filters = append(filters, []string{"not", "flag", "Seen"})
	}
	for i, f := range filters {
		if i > 0 {
			args = append(args, "and")
		}
		args = append(args, f...)
	}

	return append(args, "order", "by", "date", "desc")
}

// MoveArgs builds the message move command line for req
func MoveArgs(req core.MoveRequest) []string {
	args := []string{
		"message", "move",
		"--account", req.Account,
		"--folder", req.SourceFolder,
		req.TargetFolder,
	}
	for _, id := range req.IDs {
		args = append(args, string(id))
	}
	return args
}

// ListEnvelopes runs the listing and decodes its JSON output
func (c *Client) ListEnvelopes(ctx context.Context, q core.ListQuery) ([]core.Envelope, error) {
	out, err := c.runner.Run(ctx, c.bin, ListArgs(q)...)
	if err != nil {
		return nil, err
	}

	var envelopes []core.Envelope
	if err := json.Unmarshal(out, &envelopes); err != nil {
		return nil, fmt.Errorf("failed to parse himalaya output: %w", err)
	}

	c.logger.Debug("Listed envelopes",
		zap.String("account", q.Account),
		zap.String("folder", q.Folder),
		zap.Int("count", len(envelopes)))
	return envelopes, nil
}

// MoveMessages moves all ids in one invocation
func (c *Client) MoveMessages(ctx context.Context, req core.MoveRequest) error {
	if len(req.IDs) == 0 {
		return nil
	}
	if _, err := c.runner.Run(ctx, c.bin, MoveArgs(req)...); err != nil {
		return err
	}
	return nil
}

// Package shell runs external programs for the CLI-backed adapters.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ExecError is a program that could not be started or exited non-zero
type ExecError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Name, strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// ExecRunner runs programs through os/exec
type ExecRunner struct {
	env    []string
	logger *zap.Logger
}

// NewExecRunner creates a runner. Extra env entries (KEY=VALUE) are
// appended to the inherited environment.
func NewExecRunner(logger *zap.Logger, env ...string) *ExecRunner {
	return &ExecRunner{env: env, logger: logger}
}

// Run executes name and returns its standard output
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Running command", zap.String("name", name), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &ExecError{
			Name:   name,
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

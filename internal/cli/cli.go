// Package cli holds what the command line tools share: global flags and
// the mapping from errors to exit codes.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/mikey/clawtools/internal/di"
	"github.com/spf13/cobra"
)

// ExitError carries a process exit code. A nil Err means the command
// already reported what it had to say.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exit returns an ExitError with no message
func Exit(code int) error {
	return &ExitError{Code: code}
}

// Fail wraps err with an exit code
func Fail(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// BindGlobalFlags registers --config, --verbose and --json-log on cmd
func BindGlobalFlags(cmd *cobra.Command, opts *di.Options) {
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "Path to config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&opts.JSONLog, "json-log", false, "Output logs in JSON format")
}

// Run executes the command and returns the process exit code. Errors
// without an explicit code exit with 1.
func Run(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(stderr, "Error:", exitErr.Err)
		}
		return exitErr.Code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

// OverrideString copies a flag into the configuration when it was set
func OverrideString(cmd *cobra.Command, opts *di.Options, flag, key string) {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		opts.Set(key, f.Value.String())
	}
}

package ports

import "context"

// CommandRunner runs an external program and returns its standard output
type CommandRunner interface {
	// Run executes name with args. A non-zero exit is returned as an error
	// carrying the program's standard error.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

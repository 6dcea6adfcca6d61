package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Migrator is the schema operation set exposed by the migrate command.
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Status(ctx context.Context) error
}

// Exit codes returned by MigrateCommand.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// MigrateOptions configures a migrate invocation.
type MigrateOptions struct {
	Args   []string
	Stdout io.Writer
	Stderr io.Writer
}

// MigrateCLI runs goose migrations from the command line.
type MigrateCLI struct {
	migrator Migrator
}

// NewMigrateCLI constructs the helper around migrator.
func NewMigrateCLI(migrator Migrator) (*MigrateCLI, error) {
	if migrator == nil {
		return nil, errors.New("migrate cli: migrator is required")
	}
	return &MigrateCLI{migrator: migrator}, nil
}

// MigrateCommand executes `migrate [up|down|status]` and returns a process
// exit code. No argument means up.
func (c *MigrateCLI) MigrateCommand(ctx context.Context, opts MigrateOptions) int {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	direction := "up"
	switch len(opts.Args) {
	case 0:
	case 1:
		direction = opts.Args[0]
	default:
		fmt.Fprintln(stderr, migrateUsage)
		return ExitUsage
	}

	var run func(context.Context) error
	switch direction {
	case "up":
		run = c.migrator.Up
	case "down":
		run = c.migrator.Down
	case "status":
		run = c.migrator.Status
	default:
		fmt.Fprintf(stderr, "unknown migrate direction %q\n%s\n", direction, migrateUsage)
		return ExitUsage
	}

	if err := run(ctx); err != nil {
		fmt.Fprintf(stderr, "migrate %s: %v\n", direction, err)
		return ExitFailure
	}
	fmt.Fprintf(stdout, "migrate %s: ok\n", direction)
	return ExitOK
}

const migrateUsage = "usage: todo migrate [up|down|status]"

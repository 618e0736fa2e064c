// Package pgtools runs the PostgreSQL client programs (pg_dump, pg_dumpall,
// psql, pg_restore) on behalf of the backup core.
package pgtools

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"pgbackup-go/internal/pgbackup"
)

// Runner executes a command line and returns its combined output.
type Runner interface {
	Run(ctx context.Context, argv []string) (string, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	logger pgbackup.Logger
}

// NewExecRunner creates an ExecRunner that logs every command it starts.
func NewExecRunner(logger pgbackup.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run blocks until the command exits. A start failure or nonzero exit is
// returned as *pgbackup.ExternalToolError carrying the captured output.
func (r *ExecRunner) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", &pgbackup.ExternalToolError{ExitCode: -1, Err: errors.New("empty command")}
	}

	r.logger.Debug("running command", "cmd", strings.Join(argv, " "))
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return string(out), &pgbackup.ExternalToolError{
			Command:  append([]string(nil), argv...),
			ExitCode: code,
			Output:   string(out),
			Err:      err,
		}
	}
	return string(out), nil
}

var _ Runner = (*ExecRunner)(nil)

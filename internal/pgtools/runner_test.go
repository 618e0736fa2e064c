//go:build unix

package pgtools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pgbackup-go/internal/pgbackup"
)

func TestExecRunner_Run(t *testing.T) {
	r := NewExecRunner(pgbackup.NewNopLogger())

	out, err := r.Run(context.Background(), []string{"sh", "-c", "echo hello"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("Run() = %q, want %q", out, "hello")
	}
}

func TestExecRunner_Run_Failure(t *testing.T) {
	r := NewExecRunner(pgbackup.NewNopLogger())

	_, err := r.Run(context.Background(), []string{"sh", "-c", "echo no such role >&2; exit 3"})
	var toolErr *pgbackup.ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Run() error = %v, want ExternalToolError", err)
	}
	if toolErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", toolErr.ExitCode)
	}
	msg := err.Error()
	if !strings.Contains(msg, "sh -c") || !strings.Contains(msg, "no such role") {
		t.Errorf("error %q should include the command and its output", msg)
	}
}

func TestExecRunner_Run_MissingProgram(t *testing.T) {
	r := NewExecRunner(pgbackup.NewNopLogger())

	_, err := r.Run(context.Background(), []string{"pgbackup-no-such-program"})
	var toolErr *pgbackup.ExternalToolError
	if !errors.As(err, &toolErr) || toolErr.ExitCode != -1 {
		t.Errorf("Run() error = %v, want ExternalToolError with exit code -1", err)
	}
}

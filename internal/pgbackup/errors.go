package pgbackup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTier     = errors.New("unknown tier")
	ErrSeparator       = errors.New("label contains field separator")
	ErrFieldCount      = errors.New("wrong number of filename fields")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidSuffix   = errors.New("invalid backup suffix")
	ErrInvalidPattern  = errors.New("invalid selection pattern")
	ErrEmptySelection  = errors.New("empty schema collection")
	ErrMissingArgument = errors.New("required argument missing")
)

// ValidationError reports a malformed identity field, raised while
// constructing or decoding an identity.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConfigurationError reports missing or inconsistent parameters for a
// prospective backup.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Msg, e.Err)
	}
	return "configuration: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// PromotionError is fatal: promotion into Target was required but no
// artifact of the finer tier matched Mask.
type PromotionError struct {
	Target string
	Mask   string
	Tier   Tier
}

func (e *PromotionError) Error() string {
	return fmt.Sprintf("expected %s backup(s) matching %s to promote into %s", e.Tier, e.Mask, e.Target)
}

// ExternalToolError is fatal: an external dump/restore/query command exited
// unsuccessfully.
type ExternalToolError struct {
	Command  []string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("command `%s` failed (exit code %d): %v: output was `%s`",
		strings.Join(e.Command, " "), e.ExitCode, e.Err, strings.TrimSpace(e.Output))
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

package pgbackup

import (
	"fmt"
	"path/filepath"
)

// Identity is the complete description of one backup artifact. Every field
// is recoverable from the artifact's filename, so a directory listing is
// the only index the system keeps.
type Identity struct {
	Dir      string
	Host     string
	Port     string
	Database string
	Schema   string
	Date     Date
	Tier     Tier
	Suffix   string
}

// Target holds the parameters of a prospective backup before any file
// exists.
type Target struct {
	Dir      string
	Tier     Tier
	Database string
	Schemas  SchemaSelection
	Empty    bool
	Conn     ConnInfo
}

// NewIdentity builds the identity of a prospective backup dated today.
func NewIdentity(t Target, today Date) (Identity, error) {
	if t.Dir == "" {
		return Identity{}, &ConfigurationError{Msg: "backup directory", Err: ErrMissingArgument}
	}
	if t.Tier == "" {
		return Identity{}, &ConfigurationError{Msg: "backup tier", Err: ErrMissingArgument}
	}
	tier, err := ParseTier(string(t.Tier))
	if err != nil {
		return Identity{}, &ValidationError{Field: "tier", Value: string(t.Tier), Err: err}
	}

	id := Identity{
		Dir:    filepath.Clean(t.Dir),
		Host:   HostnameLabel(t.Conn.Hostname),
		Port:   PortLabel(t.Conn.Port),
		Date:   today,
		Tier:   tier,
		Suffix: tier.Suffix(),
	}

	if tier == TierGlobals {
		id.Database = DatabaseNA
		id.Schema = NoSchemasLabel
	} else {
		if t.Database == "" {
			return Identity{}, &ConfigurationError{Msg: fmt.Sprintf("database for %s backup", tier), Err: ErrMissingArgument}
		}
		if t.Empty && t.Schemas.Narrows() {
			return Identity{}, &ConfigurationError{Msg: "an empty dump cannot select schemas"}
		}
		if err := t.Schemas.validate(); err != nil {
			return Identity{}, err
		}
		id.Database = DatabaseLabel(t.Database)
		if id.Schema, err = t.Schemas.Label(t.Empty); err != nil {
			return Identity{}, err
		}
	}

	for _, f := range []struct{ name, value string }{
		{"port", id.Port},
		{"database", id.Database},
		{"schema", id.Schema},
	} {
		if err := checkLabel(f.name, f.value); err != nil {
			return Identity{}, err
		}
	}
	return id, nil
}

// Path returns the filesystem path of the artifact.
func (id Identity) Path() (string, error) {
	return Encode(id)
}

// Base returns the artifact's filename without directory.
func (id Identity) Base() (string, error) {
	p, err := Encode(id)
	if err != nil {
		return "", err
	}
	return filepath.Base(p), nil
}

// WithTier returns a copy of id moved to another tier.
func (id Identity) WithTier(t Tier) Identity {
	id.Tier = t
	id.Suffix = t.Suffix()
	return id
}

// SameGroup reports whether two identities differ at most in date.
func (id Identity) SameGroup(other Identity) bool {
	id.Date, other.Date = Date{}, Date{}
	return id == other
}

func (id Identity) String() string {
	p, err := Encode(id)
	if err != nil {
		return fmt.Sprintf("<invalid identity: %v>", err)
	}
	return p
}

package pgbackup

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// Separator joins the filename fields. No label may contain it.
	Separator = "."

	// GlobalsSuffix ends every globals artifact; RegularSuffix every other.
	GlobalsSuffix = "sql"
	RegularSuffix = "pg_dump_Fc"

	// fieldCount is host, port, database, schema, date, tier, suffix.
	fieldCount = 7

	dateWildcard = "*"
)

// Encode returns the path of id:
//
//	<dir>/<host>.<port>.<database>.<schema>.<date>.<tier>.<suffix>
func Encode(id Identity) (string, error) {
	base, err := encodeFields(id.Host, id.Port, id.Database, id.Schema, id.Date.String(), string(id.Tier), id.Suffix)
	if err != nil {
		return "", err
	}
	return filepath.Join(id.Dir, base), nil
}

// Decode parses an artifact path back into its identity.
func Decode(path string) (Identity, error) {
	base := filepath.Base(path)
	parts := strings.Split(base, Separator)
	if len(parts) != fieldCount {
		return Identity{}, &ValidationError{Field: "backup filename", Value: base, Err: ErrFieldCount}
	}

	date, err := ParseDate(parts[4])
	if err != nil {
		return Identity{}, &ValidationError{Field: "date", Value: parts[4], Err: fmt.Errorf("%w: %s", ErrInvalidDate, base)}
	}

	tier, err := ParseTier(parts[5])
	if err != nil {
		return Identity{}, &ValidationError{Field: "tier", Value: parts[5], Err: err}
	}

	suffix := parts[6]
	if suffix != tier.Suffix() {
		return Identity{}, &ValidationError{Field: "backup suffix", Value: suffix, Err: fmt.Errorf("%w for %s tier", ErrInvalidSuffix, tier)}
	}

	return Identity{
		Dir:      filepath.Dir(path),
		Host:     parts[0],
		Port:     parts[1],
		Database: parts[2],
		Schema:   parts[3],
		Date:     date,
		Tier:     tier,
		Suffix:   suffix,
	}, nil
}

// Mask returns a glob pattern matching every dated variant of id's group.
// A non-empty tier replaces id's tier (and suffix) in the pattern.
func Mask(id Identity, tier Tier) (string, error) {
	if tier != "" {
		t, err := ParseTier(string(tier))
		if err != nil {
			return "", &ValidationError{Field: "tier", Value: string(tier), Err: err}
		}
		id = id.WithTier(t)
	}

	fields := []string{id.Host, id.Port, id.Database, id.Schema, dateWildcard, string(id.Tier), id.Suffix}
	for i, f := range fields {
		if i != 4 {
			fields[i] = escapeGlob(f)
		}
	}
	base, err := encodeFields(fields...)
	if err != nil {
		return "", err
	}
	return filepath.Join(escapeGlob(id.Dir), base), nil
}

func encodeFields(fields ...string) (string, error) {
	if len(fields) != fieldCount {
		return "", fmt.Errorf("encoding %d fields, want %d: %w", len(fields), fieldCount, ErrFieldCount)
	}
	for _, f := range fields {
		if f == "" {
			return "", &ValidationError{Field: "filename field", Value: f, Err: ErrMissingArgument}
		}
		if err := checkLabel("filename field", f); err != nil {
			return "", err
		}
	}

	base := strings.Join(fields, Separator)
	if n := strings.Count(base, Separator); n != fieldCount-1 {
		return "", fmt.Errorf("constructed filename %q has %d separators, want %d", base, n, fieldCount-1)
	}
	return base, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

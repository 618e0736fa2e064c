package pgbackup

import (
	"context"
	"fmt"
	"regexp"
	"sort"
)

// SelectionKind tags the shape of a SchemaSelection.
type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectSingle
	SelectMultiple
	SelectCriteria
)

// SchemaSelection describes which schemas of a database a dump covers.
// Build one with NoSchemas, SingleSchema, MultipleSchemas or SchemaCriteria.
type SchemaSelection struct {
	kind    SelectionKind
	names   []string
	include string
	exclude string
}

// NoSchemas selects nothing.
func NoSchemas() SchemaSelection {
	return SchemaSelection{kind: SelectNone}
}

// SingleSchema selects exactly one named schema.
func SingleSchema(name string) SchemaSelection {
	return SchemaSelection{kind: SelectSingle, names: []string{name}}
}

// MultipleSchemas selects an explicit collection of schemas. A collection
// of one behaves like SingleSchema.
func MultipleSchemas(names ...string) SchemaSelection {
	return SchemaSelection{kind: SelectMultiple, names: append([]string(nil), names...)}
}

// SchemaCriteria selects the schemas matching include and not matching
// exclude. Both empty means every schema.
func SchemaCriteria(include, exclude string) SchemaSelection {
	return SchemaSelection{kind: SelectCriteria, include: include, exclude: exclude}
}

func (s SchemaSelection) Kind() SelectionKind { return s.kind }
func (s SchemaSelection) Include() string     { return s.include }
func (s SchemaSelection) Exclude() string     { return s.exclude }

// Names returns the literal schema names of a Single or Multiple selection.
func (s SchemaSelection) Names() []string {
	return append([]string(nil), s.names...)
}

// Narrows reports whether the selection restricts a dump to a subset of
// the database's schemas.
func (s SchemaSelection) Narrows() bool {
	switch s.kind {
	case SelectSingle, SelectMultiple:
		return len(s.names) > 0
	case SelectCriteria:
		return s.include != "" || s.exclude != ""
	default:
		return false
	}
}

// Label returns the schema field of the filename. empty forces
// NoSchemasLabel.
func (s SchemaSelection) Label(empty bool) (string, error) {
	if empty {
		return NoSchemasLabel, nil
	}
	switch s.kind {
	case SelectNone:
		return NoSchemasLabel, nil
	case SelectCriteria:
		if s.Narrows() {
			return SelectedSchemasLabel, nil
		}
		return AllSchemasLabel, nil
	case SelectSingle, SelectMultiple:
		switch len(s.names) {
		case 0:
			return "", &ValidationError{Field: "schema selection", Value: "", Err: ErrEmptySelection}
		case 1:
			return s.names[0], nil
		default:
			return SelectedSchemasLabel, nil
		}
	default:
		return "", fmt.Errorf("unknown schema selection kind %d", s.kind)
	}
}

// validate checks the literal names for separator characters.
func (s SchemaSelection) validate() error {
	for _, name := range s.names {
		if err := checkLabel("schema", name); err != nil {
			return err
		}
	}
	if s.kind == SelectCriteria {
		if _, err := compileFilter(s.include, s.exclude); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the schema names a dump of database should be
// restricted to. A nil result means no restriction. Criteria that narrow
// the selection but match no schema are a ConfigurationError, since an
// unrestricted dump would then be labelled as a selection.
func (s SchemaSelection) Resolve(ctx context.Context, resolver SchemaResolver, database string, conn ConnInfo) ([]string, error) {
	switch s.kind {
	case SelectSingle, SelectMultiple:
		return s.Names(), nil
	case SelectCriteria:
		if !s.Narrows() {
			return nil, nil
		}
		names, err := resolver.MatchingSchemas(ctx, database, conn, s.include, s.exclude)
		if err != nil {
			return nil, fmt.Errorf("resolving schemas of %s: %w", database, err)
		}
		if len(names) == 0 {
			return nil, &ConfigurationError{Msg: fmt.Sprintf("no schema of %s matches include %q exclude %q", database, s.include, s.exclude)}
		}
		for _, name := range names {
			if err := checkLabel("schema", name); err != nil {
				return nil, err
			}
		}
		return names, nil
	default:
		return nil, nil
	}
}

type filter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

func compileFilter(include, exclude string) (*filter, error) {
	f := &filter{}
	var err error
	if include != "" {
		if f.include, err = regexp.Compile(include); err != nil {
			return nil, &ValidationError{Field: "include pattern", Value: include, Err: fmt.Errorf("%w: %v", ErrInvalidPattern, err)}
		}
	}
	if exclude != "" {
		if f.exclude, err = regexp.Compile(exclude); err != nil {
			return nil, &ValidationError{Field: "exclude pattern", Value: exclude, Err: fmt.Errorf("%w: %v", ErrInvalidPattern, err)}
		}
	}
	return f, nil
}

func (f *filter) match(s string) bool {
	if f.include != nil && !f.include.MatchString(s) {
		return false
	}
	if f.exclude != nil && f.exclude.MatchString(s) {
		return false
	}
	return true
}

// FilterCollection returns the distinct elements of collection matching
// include and not matching exclude, sorted. Patterns are unanchored: "abc"
// matches both "_abc_" and "abcdef". An empty pattern imposes nothing.
func FilterCollection(collection []string, include, exclude string) ([]string, error) {
	f, err := compileFilter(include, exclude)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(collection))
	var matches []string
	for _, element := range collection {
		if seen[element] || !f.match(element) {
			continue
		}
		seen[element] = true
		matches = append(matches, element)
	}
	sort.Strings(matches)
	return matches, nil
}

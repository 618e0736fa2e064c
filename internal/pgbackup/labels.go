package pgbackup

import (
	"os"
	"strings"
)

const (
	// DefaultPort is the port label used when none is configured.
	DefaultPort = "5432"

	// DatabaseNA is the database label of globals backups.
	DatabaseNA = "database_na"

	NoSchemasLabel       = "no_schemas"
	AllSchemasLabel      = "all_schemas"
	SelectedSchemasLabel = "selected_schemas"
)

// HostnameLabel normalizes a configured host for use in filenames.
// Empty, "localhost" and "127.0.0.1" resolve to this machine's hostname;
// anything after the first separator is dropped.
func HostnameLabel(hostname string) string {
	if hostname == "" {
		hostname = "localhost"
	}
	if hostname == "localhost" || hostname == "127.0.0.1" {
		if h, err := os.Hostname(); err == nil && h != "" {
			hostname = h
		} else {
			hostname = "localhost"
		}
	}
	host, _, _ := strings.Cut(hostname, Separator)
	return host
}

// PortLabel normalizes a configured port, defaulting to 5432.
func PortLabel(port string) string {
	if port == "" {
		return DefaultPort
	}
	return port
}

// DatabaseLabel returns the database name, or DatabaseNA when empty.
func DatabaseLabel(database string) string {
	if database == "" {
		return DatabaseNA
	}
	return database
}

// checkLabel rejects values that would make an encoded filename ambiguous.
func checkLabel(field, value string) error {
	if strings.Contains(value, Separator) {
		return &ValidationError{Field: field, Value: value, Err: ErrSeparator}
	}
	return nil
}

// Package config holds the registry's Configuration record and its eager
// validator. A Configuration is created once at engine construction,
// never mutated afterward, and freely shared across goroutines.
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"jsonregistry/internal/errs"
)

// Configuration is the frozen set of options accepted by New. It may be
// built programmatically or loaded from a TOML file via LoadFile; both
// paths are validated by the same Validate method.
type Configuration struct {
	DatabaseName     string
	DatabaseHost     string
	DatabaseUser     string
	DatabasePassword string
	DatabasePort     int

	PoolSize int

	LRUCacheSize int

	TableName    string
	IDColumn     string
	JSONBColumn  string

	// StatementTimeout bounds a single store round-trip. Zero means no
	// explicit per-statement timeout beyond whatever the caller's context
	// already carries.
	StatementTimeout time.Duration
}

const (
	minPort = 1
	maxPort = 65535

	maxPoolSize = 10000
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the Configuration against §4.2's rules and returns the
// first violation found: the presence and range checks run in the order
// the fields are declared above, and the identifier-safety checks on
// TableName, IDColumn, and JSONBColumn run only after all of those. The
// returned error is always a *errs.ConfigError with one of the fixed
// message strings required for caller compatibility.
//
// lru_cache_size == 0 is not a violation: it is silently promoted to 1 by
// Normalized.
func (c Configuration) Validate() error {
	if strings.TrimSpace(c.DatabaseName) == "" {
		return errs.NewConfigError("database_name cannot be empty")
	}
	if strings.TrimSpace(c.DatabaseHost) == "" {
		return errs.NewConfigError("database_host cannot be empty")
	}
	if strings.TrimSpace(c.DatabaseUser) == "" {
		return errs.NewConfigError("database_user cannot be empty")
	}
	if c.DatabasePort < minPort || c.DatabasePort > maxPort {
		return errs.NewConfigError("database_port must be between 1 and 65535")
	}
	if c.PoolSize <= 0 {
		return errs.NewConfigError("pool_size must be greater than 0")
	}
	if c.PoolSize > maxPoolSize {
		return errs.NewConfigError("pool_size exceeds reasonable maximum")
	}
	if strings.TrimSpace(c.TableName) == "" {
		return errs.NewConfigError("table_name cannot be empty")
	}
	if strings.TrimSpace(c.IDColumn) == "" {
		return errs.NewConfigError("id_column cannot be empty")
	}
	if strings.TrimSpace(c.JSONBColumn) == "" {
		return errs.NewConfigError("jsonb_column cannot be empty")
	}
	if err := checkIdentifier(c.TableName); err != nil {
		return err
	}
	if err := checkIdentifier(c.IDColumn); err != nil {
		return err
	}
	if err := checkIdentifier(c.JSONBColumn); err != nil {
		return err
	}
	return nil
}

// checkIdentifier proves the structural guarantee §3 relies on to allow
// bare SQL interpolation without per-call escaping: first character a
// letter or underscore, remaining characters letters, digits, or
// underscores.
func checkIdentifier(name string) error {
	if identifierPattern.MatchString(name) {
		return nil
	}
	first := rune(name[0])
	if !isLetter(first) && first != '_' {
		return errs.NewConfigError(fmt.Sprintf("%q must start with a letter or underscore", name))
	}
	for _, r := range name {
		if !isLetter(r) && !isDigit(r) && r != '_' {
			return errs.NewConfigError(fmt.Sprintf("%q contains invalid character %q", name, string(r)))
		}
	}
	// Unreachable in practice: identifierPattern's character class matches
	// exactly the letter/digit/underscore set checked above.
	return errs.NewConfigError(fmt.Sprintf("%q is not a valid identifier", name))
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Normalized returns a copy of c with lru_cache_size promoted from 0 to 1.
// Call this only after Validate has already succeeded.
func (c Configuration) Normalized() Configuration {
	if c.LRUCacheSize <= 0 {
		c.LRUCacheSize = 1
	}
	return c
}

// DSN assembles a libpq-style connection string for pgx from the
// validated fields. Values are never interpolated as raw SQL text
// elsewhere in the registry; this is the one place a connection string is
// built, and it goes to the driver's own DSN parser, not to a SQL
// statement. DatabaseUser, DatabasePassword, and DatabaseName are not
// restricted to URL-safe characters, so they're escaped through
// net/url.URL rather than interpolated with fmt.Sprintf — a raw password
// containing '@', ':', or '%' would otherwise produce a string pgx's own
// URL parser misreads.
func (c Configuration) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DatabaseUser, c.DatabasePassword),
		Host:   fmt.Sprintf("%s:%d", c.DatabaseHost, c.DatabasePort),
		Path:   "/" + c.DatabaseName,
	}
	return u.String()
}

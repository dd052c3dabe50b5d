package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"time"
)

// Dialect hides what differs between the SQL backends that can hold kv_store
type Dialect interface {
	// DriverName is the name registered with database/sql
	DriverName() string

	// DSN builds the connection string from the configured path or URL
	DSN(config DialectConfig) string

	// RewriteQuery turns ? placeholders into the driver's syntax
	RewriteQuery(query string) string

	// ConfigureConnection tunes the pool and session after the first ping
	ConfigureConnection(db *sql.DB, pool PoolSettings) error

	// MigrationsSubdir names the embedded migrations directory
	MigrationsSubdir() string

	CreateMigrationsTableQuery() string

	// UpsertKVQuery returns an insert-or-replace for kv_store taking (store_key, value)
	UpsertKVQuery() string
}

// DialectConfig locates the database: a file path for SQLite, a URL otherwise
type DialectConfig struct {
	Path string
	URL  string
}

// PoolSettings bounds the connection pool
type PoolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// DefaultPoolSettings suits a single server process writing small documents
var DefaultPoolSettings = PoolSettings{
	MaxOpen:     10,
	MaxIdle:     5,
	MaxLifetime: 5 * time.Minute,
	MaxIdleTime: time.Minute,
}

func (p PoolSettings) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	db.SetConnMaxIdleTime(p.MaxIdleTime)
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ...
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// NewDialect returns the dialect for a configured database type
func NewDialect(dbType string) (Dialect, bool) {
	switch dbType {
	case "postgres", "postgresql":
		return NewPostgresDialect(), true
	case "mysql":
		return NewMySQLDialect(), true
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), true
	}
	return nil, false
}

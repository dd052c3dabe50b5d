package database

import (
	"database/sql"
	"strings"

	"github.com/lib/pq"
)

// PostgresDialect uses numbered placeholders and a TIMESTAMPTZ bookkeeping table
type PostgresDialect struct{}

func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// DSN converts postgres:// URLs to a keyword string tagged with the
// application name. Keyword strings are passed through untouched.
func (d *PostgresDialect) DSN(config DialectConfig) string {
	if !strings.HasPrefix(config.URL, "postgres://") && !strings.HasPrefix(config.URL, "postgresql://") {
		return config.URL
	}
	conn, err := pq.ParseURL(config.URL)
	if err != nil {
		return config.URL
	}
	if !strings.Contains(conn, "application_name=") {
		conn += " application_name=pyquest"
	}
	return conn
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB, pool PoolSettings) error {
	pool.apply(db)
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string {
	return "postgres"
}

func (d *PostgresDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT UNIQUE NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *PostgresDialect) UpsertKVQuery() string {
	return "INSERT INTO kv_store (store_key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) " +
		"ON CONFLICT (store_key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP"
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pyquest/internal/database"
)

// SQLKV stores values in the kv_store table of any supported dialect
type SQLKV struct {
	db database.DBTX
}

// NewSQLKV creates a KV backed by db
func NewSQLKV(db database.DBTX) *SQLKV {
	return &SQLKV{db: db}
}

// Get retrieves a value by key
func (r *SQLKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE store_key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set updates or inserts a value
func (r *SQLKV) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, r.db.GetDialect().UpsertKVQuery(), key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Keys lists keys starting with prefix
func (r *SQLKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	escaped := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(prefix)
	rows, err := r.db.QueryContext(ctx,
		"SELECT store_key FROM kv_store WHERE store_key LIKE ? ESCAPE '!' ORDER BY store_key",
		escaped+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

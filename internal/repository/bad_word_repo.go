package repository

import (
	"context"
	"fmt"
	"strings"

	"pyquest/internal/database"
)

// BadWordRepository stores extra blocklisted username words for SQL backends
type BadWordRepository struct {
	db *database.DB
}

// NewBadWordRepository creates a new bad word repository
func NewBadWordRepository(db *database.DB) *BadWordRepository {
	return &BadWordRepository{db: db}
}

// List returns every stored word
func (r *BadWordRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT word FROM bad_words ORDER BY word")
	if err != nil {
		return nil, fmt.Errorf("failed to list bad words: %w", err)
	}
	defer rows.Close()

	words := []string{}
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan bad word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// Add inserts words not already present and returns how many were new
func (r *BadWordRepository) Add(ctx context.Context, words ...string) (int, error) {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM bad_words WHERE word = ?", w).Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to check bad word: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO bad_words (word) VALUES (?)", w); err != nil {
			return 0, fmt.Errorf("failed to insert bad word: %w", err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bad words: %w", err)
	}
	return added, nil
}

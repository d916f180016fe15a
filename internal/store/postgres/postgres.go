// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and lib/pq. Deletes use RETURNING so each delete is a single
// query that also reports the removed rows; there is no transaction
// wrapping across the cascade stages.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// Open connects to the database and verifies the connection with a ping.
// The returned handle is pooled and safe for concurrent use; its lifecycle
// belongs to the process entry point.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// escapeLike escapes LIKE metacharacters so branch paths containing % or _
// match literally in subtree patterns.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// subtreePattern is the LIKE pattern matching strict descendants of path,
// aligned on a segment boundary.
func subtreePattern(path string) string {
	return escapeLike(path) + "/%"
}

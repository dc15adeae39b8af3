// Package services provides the SQLite repositories that supply dataset
// snapshots to the table engine and persist the mutations made from the
// admin dashboard and public catalog.
package services

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Sentinel errors returned by repositories.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// builder renders SQLite-compatible "?" placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// affectedOne maps a zero-row UPDATE or DELETE to ErrNotFound.
func affectedOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Package repository implements the persistence layer on *sql.DB. It owns
// all principal and content rows; no other package issues SQL. Sentinel
// errors let handlers map database failures onto the HTTP taxonomy without
// leaking driver detail.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no matching, non-deleted row exists.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned on unique-key violations (email, phone, name).
var ErrDuplicate = errors.New("duplicate record")

// ErrForeignKey is returned when a referenced row does not exist.
var ErrForeignKey = errors.New("referenced record not found")

// ErrTokenMismatch is returned when a compare-and-swap on a stored refresh
// token affects no rows: the presented token is not the live one.
var ErrTokenMismatch = errors.New("refresh token mismatch")

// ErrNullColumn is returned when a required column would be written NULL,
// which means a caller skipped validation.
var ErrNullColumn = errors.New("required column missing")

// MySQL server error numbers we care about.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrBadNullColumn   = 1048
	mysqlErrNoReferencedRow = 1452
)

// mapSQLError converts driver errors to sentinel values.
func mapSQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDuplicateEntry:
			return ErrDuplicate
		case mysqlErrBadNullColumn:
			return ErrNullColumn
		case mysqlErrNoReferencedRow:
			return ErrForeignKey
		}
	}
	return err
}

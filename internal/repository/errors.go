// Package repository holds the SQL data access layer. Repositories speak
// sqlx against MySQL or SQLite and report well-known failures through the
// sentinel errors below so services never inspect driver errors.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user is created or updated with an email
// that another account already uses.
var ErrEmailExists = errors.New("email already exists")

// ErrHandleExists is the handle counterpart of ErrEmailExists.
var ErrHandleExists = errors.New("handle already exists")

// ErrConflict signals any other unique-key violation, e.g. a second wiki
// entry for the same species.
var ErrConflict = errors.New("conflict")

// ErrParentMissing is returned when a row references a user or plant that
// does not exist, typically because it was deleted concurrently. It matches
// ErrNotFound under errors.Is.
var ErrParentMissing = fmt.Errorf("referenced row %w", ErrNotFound)

// isDuplicate reports whether err is a unique-key violation. MySQL reports
// error 1062; SQLite only exposes it through the message text.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Error 1062")
}

// isForeignKey reports whether err is a foreign-key violation on insert.
// MySQL reports error 1452.
func isForeignKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1452
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "Error 1452")
}

// insertErr maps a foreign-key violation to ErrParentMissing.
func insertErr(err error) error {
	if isForeignKey(err) {
		return ErrParentMissing
	}
	return err
}

// duplicateUserErr maps a unique violation on users to the matching
// sentinel by the name of the violated key (MySQL) or column (SQLite).
func duplicateUserErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "uq_users_handle"), strings.Contains(msg, "users.handle"):
		return ErrHandleExists
	case strings.Contains(msg, "uq_users_email"), strings.Contains(msg, "users.email"):
		return ErrEmailExists
	}
	return ErrConflict
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// affected returns ErrNotFound when an UPDATE or DELETE touched no row.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

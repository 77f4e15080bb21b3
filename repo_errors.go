package library

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// uniqueViolationColumn extracts the column behind a unique constraint
// failure from SQLite or PostgreSQL errors.
func uniqueViolationColumn(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		// accounts_username_key, admins_email_key, ...
		for _, col := range []string{"username", "email"} {
			if strings.Contains(pgErr.ConstraintName, col) || strings.Contains(pgErr.Detail, "("+col+")") {
				return col, true
			}
		}
		return pgErr.ConstraintName, true
	}

	// UNIQUE constraint failed: accounts.username
	msg := err.Error()
	idx := strings.Index(msg, "UNIQUE constraint failed:")
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimSpace(msg[idx+len("UNIQUE constraint failed:"):])
	if sp := strings.IndexAny(rest, " ,("); sp >= 0 {
		rest = rest[:sp]
	}
	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		rest = rest[dot+1:]
	}
	return rest, true
}

// mapIdentityStoreError turns driver errors from the accounts and admins
// tables into domain errors.
func mapIdentityStoreError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	if col, ok := uniqueViolationColumn(err); ok {
		switch col {
		case "username":
			return ErrUsernameInUse
		case "email":
			return ErrEmailInUse
		}
	}
	return internalError(err, msg)
}

func mapStoreError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	return internalError(err, msg)
}

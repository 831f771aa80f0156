package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-promotions/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation, optionally
// restricted to constraintName. SQLite messages are matched for tests.
func IsUniqueViolation(err error, constraintName string) bool {
	return isViolation(err, pgUniqueViolation, constraintName,
		"duplicate key value", "UNIQUE constraint failed")
}

// IsForeignKeyViolation reports whether err is a foreign key violation, optionally
// restricted to constraintName.
func IsForeignKeyViolation(err error, constraintName string) bool {
	return isViolation(err, pgForeignKeyViolation, constraintName,
		"violates foreign key constraint", "FOREIGN KEY constraint failed")
}

func isViolation(err error, pgCode, constraintName string, markers ...string) bool {
	if err == nil {
		return false
	}

	if pg, ok := pkgerrors.AsPG(err); ok {
		if pg.Code != pgCode {
			return false
		}
		return constraintName == "" || pg.Constraint == constraintName
	}

	msg := err.Error()
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return constraintName == "" || strings.Contains(msg, constraintName)
		}
	}
	return false
}

package psql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Constraint names from migrations/00001_directory.sql.
const (
	constraintUsername     = "accounts_username_key"
	constraintProfilePhone = "profiles_phone_number_key"
	constraintContactPhone = "contacts_owner_phone_key"
	constraintReport       = "spam_reports_reporter_phone_key"
)

// violatedConstraint returns the unique constraint name err reports, if any.
func violatedConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

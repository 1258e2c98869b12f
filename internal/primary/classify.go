package primary

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClass buckets primary-store failures for the save path.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassSchemaMissing
	ClassPermissionDenied
	ClassUnknown
)

// String implements fmt.Stringer.
func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassSchemaMissing:
		return "schema_missing"
	case ClassPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Soft reports whether the class is an expected condition rather than a fault.
func (c ErrorClass) Soft() bool {
	return c == ClassSchemaMissing || c == ClassPermissionDenied
}

// SQLSTATE codes treated as expected conditions.
const (
	codeUndefinedTable        = "42P01"
	codeUndefinedColumn       = "42703"
	codeInvalidSchemaName     = "3F000"
	codeInvalidTextRepr       = "22P02"
	codeInsufficientPrivilege = "42501"
)

// Classify maps a primary-store error onto an ErrorClass. A nil error is ClassNone.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrNotConfigured) {
		return ClassSchemaMissing
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ClassSchemaMissing
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUndefinedTable, codeUndefinedColumn, codeInvalidSchemaName, codeInvalidTextRepr:
			return ClassSchemaMissing
		case codeInsufficientPrivilege:
			return ClassPermissionDenied
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "row-level security"):
		return ClassPermissionDenied
	case strings.Contains(msg, "does not exist"), strings.Contains(msg, "invalid input syntax"):
		return ClassSchemaMissing
	}
	return ClassUnknown
}

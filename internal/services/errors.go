package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// Error kinds surfaced to the workflow layer.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindAuth       = "auth"
	KindProvider   = "provider"
)

type ServiceError struct {
	Status  int
	Kind    string
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: 404, Kind: KindNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: 400, Kind: KindValidation, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: 403, Kind: KindAuth, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: 401, Kind: KindAuth, Message: msg}
}

// ErrProvider reports a failure of the external identity provider. It is
// retryable and never accompanied by a local state change.
func ErrProvider(msg string) error {
	return ServiceError{Status: 502, Kind: KindProvider, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// IsKind reports whether err is a ServiceError of the given kind.
func IsKind(err error, kind string) bool {
	var serr ServiceError
	if errors.As(err, &serr) {
		return serr.Kind == kind
	}
	return false
}

const sqliteConstraint = 19

// storageError maps engine constraint violations onto the validation kind
// and wraps everything else.
func storageError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isConstraintViolation(err) {
		return ServiceError{Status: 400, Kind: KindValidation, Message: msg + ": constraint violation"}
	}
	return WrapError(err, msg)
}

func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) == 5 && pgErr.Code[:2] == "23"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqliteConstraint
	}
	return false
}

package services

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"servicehours-backend-go/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
)

const DefaultHoursRequirement = 5.0

// Store owns the shared database handle and performs every catalog, record,
// user and admin-code mutation together with its audit entry.
type Store struct {
	DB               *sqlx.DB
	IDs              *IDAllocator
	Hub              *AuditHub
	HoursRequirement float64

	validate *validator.Validate
}

func NewStore(db *sqlx.DB, ids *IDAllocator) *Store {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &Store{
		DB:               db,
		IDs:              ids,
		HoursRequirement: DefaultHoursRequirement,
		validate:         v,
	}
}

func (s *Store) validateInput(input interface{}) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return ErrBadRequest("Invalid payload")
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return ErrBadRequest(fe.Field() + " is required")
	case "gt":
		return ErrBadRequest(fe.Field() + " must be greater than " + fe.Param())
	case "oneof":
		return ErrBadRequest(fe.Field() + " must be one of " + fe.Param())
	default:
		return ErrBadRequest(fe.Field() + " is invalid")
	}
}

// mutation is one transaction holding a data change and the audit entries
// that describe it.
type mutation struct {
	tx      *sqlx.Tx
	ids     *IDAllocator
	actor   string
	entries []models.AuditEntry
}

func (s *Store) mutate(ctx context.Context, actor string, fn func(m *mutation) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return WrapError(err, "begin transaction")
	}
	m := &mutation{tx: tx, ids: s.IDs, actor: strings.TrimSpace(actor)}
	if err := fn(m); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageError(err, "commit")
	}
	if s.Hub != nil {
		for _, entry := range m.entries {
			s.Hub.Broadcast(entry)
		}
	}
	return nil
}

func (m *mutation) rebind(query string) string {
	return m.tx.Rebind(query)
}

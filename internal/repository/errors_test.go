package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPgError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name        string
		err         error
		wantIs      error
		wantMsg     string
		wantInvalid bool
	}{
		{
			name:   "duplicate email",
			err:    &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_email_key", Message: "duplicate key value"},
			wantIs: ErrEmailTaken, wantMsg: "User already registered", wantInvalid: true,
		},
		{
			name:    "other unique violation",
			err:     &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "profiles_pkey", Message: "duplicate key value violates unique constraint"},
			wantMsg: "duplicate key value violates unique constraint", wantInvalid: true,
		},
		{
			name:    "booking dates",
			err:     &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "bookings_dates_check", Message: "new row violates check constraint"},
			wantMsg: "check_out_date must be after check_in_date", wantInvalid: true,
		},
		{
			name:   "booking status",
			err:    &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "bookings_status_check"},
			wantIs: domain.ErrInvalidStatus, wantInvalid: true,
		},
		{
			name:    "property price",
			err:     &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "properties_price_per_night_check"},
			wantMsg: "price_per_night must be a positive number", wantInvalid: true,
		},
		{
			name:    "unknown check",
			err:     &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "something_check", Message: "violates something_check"},
			wantMsg: "violates something_check", wantInvalid: true,
		},
		{
			name:    "missing property",
			err:     &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "bookings_property_id_fkey"},
			wantMsg: "property not found", wantInvalid: true,
		},
		{
			name:    "other foreign key",
			err:     &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "bookings_user_id_fkey", Message: "violates bookings_user_id_fkey"},
			wantMsg: "violates bookings_user_id_fkey", wantInvalid: true,
		},
		{
			name:    "malformed uuid",
			err:     &pgconn.PgError{Code: pgInvalidText, Message: `invalid input syntax for type uuid: "abc"`},
			wantMsg: `invalid input syntax for type uuid: "abc"`, wantInvalid: true,
		},
		{
			name:    "wrapped check violation",
			err:     fmt.Errorf("tx: %w", &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "bookings_dates_check"}),
			wantMsg: "check_out_date must be after check_in_date", wantInvalid: true,
		},
		{
			name:   "unmapped postgres code",
			err:    &pgconn.PgError{Severity: "ERROR", Code: "40001", Message: "could not serialize access"},
			wantIs: nil, wantMsg: "ERROR: could not serialize access (SQLSTATE 40001)",
		},
		{
			name:   "not a postgres error",
			err:    plain,
			wantIs: plain, wantMsg: "connection reset",
		},
		{
			name:   "deadline",
			err:    context.DeadlineExceeded,
			wantIs: context.DeadlineExceeded, wantMsg: context.DeadlineExceeded.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPgError(tt.err)
			assert.Equal(t, tt.wantInvalid, domain.IsValidation(got))
			if tt.wantIs != nil {
				assert.ErrorIs(t, got, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.EqualError(t, got, tt.wantMsg)
			}
		})
	}
}

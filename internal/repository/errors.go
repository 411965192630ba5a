package repository

import (
	"errors"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrEmailTaken = domain.Invalid("User already registered")

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// mapPgError converts constraint failures into client errors. Other errors pass through.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == "users_email_key" {
			return ErrEmailTaken
		}
		return domain.Invalid("%s", pgErr.Message)
	case pgCheckViolation:
		switch pgErr.ConstraintName {
		case "bookings_dates_check":
			return domain.Invalid("check_out_date must be after check_in_date")
		case "bookings_status_check":
			return domain.ErrInvalidStatus
		case "properties_price_per_night_check":
			return domain.Invalid("price_per_night must be a positive number")
		}
		return domain.Invalid("%s", pgErr.Message)
	case pgForeignKeyViolation:
		if pgErr.ConstraintName == "bookings_property_id_fkey" {
			return domain.Invalid("property not found")
		}
		return domain.Invalid("%s", pgErr.Message)
	case pgInvalidText:
		return domain.Invalid("%s", pgErr.Message)
	}
	return err
}

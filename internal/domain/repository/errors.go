package repository

import (
	"errors"
	"fmt"

	"nomination_ledger/internal/ledger"
	"nomination_ledger/internal/platform/database"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"

	uniqueNominationConstraint = "unique_nomination"
	nominationLimitConstraint  = "nomination_limit"
)

var errUnknownReference = fmt.Errorf("unknown judge or category: %w", ledger.ErrValidation)

// classifyNominationError turns a failed nomination write into a ledger kind
// using the driver's structured error codes. Unrecognized failures are
// reported as transport errors.
func classifyNominationError(dialect database.Driver, op string, err error) error {
	switch dialect {
	case database.Postgres:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == uniqueNominationConstraint:
				return ledger.ErrDuplicateProject
			case pgErr.Code == pgCheckViolation && pgErr.ConstraintName == nominationLimitConstraint:
				return ledger.ErrCategoryFull
			case pgErr.Code == pgForeignKeyViolation, pgErr.Code == pgInvalidText:
				return errUnknownReference
			}
		}
	case database.SQLite:
		var liteErr sqlite3.Error
		if errors.As(err, &liteErr) {
			switch liteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique:
				return ledger.ErrDuplicateProject
			case sqlite3.ErrConstraintTrigger:
				return ledger.ErrCategoryFull
			case sqlite3.ErrConstraintForeignKey:
				return errUnknownReference
			}
		}
	}
	return ledger.Transport(op, err)
}

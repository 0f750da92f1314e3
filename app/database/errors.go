package database

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
)

func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}

// IsInvalidInput reports a value Postgres could not parse for its column type, such as a malformed uuid.
func IsInvalidInput(err error) bool {
	return pqCode(err) == pqInvalidText
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// ErrNoRows is what lookups and single-row writes report when nothing matched.
var ErrNoRows = sql.ErrNoRows

// Affected converts the result of a single-row UPDATE or DELETE into ErrNoRows when it matched nothing.
func Affected(res sql.Result, err error, op string) error {
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrap(ErrNoRows, op)
	}
	return nil
}

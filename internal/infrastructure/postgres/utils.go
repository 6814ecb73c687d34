package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Transporte-api/internal/domain"
)

// SQLSTATE usados en la traducción de errores.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeInvalidText         = "22P02"
)

// mapError envuelve el error del driver con el sentinel de dominio que corresponde.
// Un error de PostgreSQL sin clasificar se devuelve tal cual; todo lo que no llegó a ser
// respuesta del servidor (red, pool cerrado, timeout) es ErrStoreUnavailable.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation, codeForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.Message, domain.ErrConstraintViolation)
		case codeCheckViolation, codeNotNullViolation, codeInvalidText:
			return fmt.Errorf("%s: %s: %w", op, pgErr.Message, domain.ErrValidationReject)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStoreUnavailable)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

package main

import "errors"

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

const (
	exitOK         = 0
	exitRowsFailed = 2 // el reporte tiene filas FAILED
	exitUsage      = 3
	exitStore      = 4 // almacén no disponible o carga abortada
	exitUnreadable = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}

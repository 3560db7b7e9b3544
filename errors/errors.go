package errors

import "fmt"

var (
	ErrAlreadyExists      = fmt.Errorf("already exists")
	ErrNotFound           = fmt.Errorf("not found")
	ErrForbidden          = fmt.Errorf("forbidden")
	ErrEmptyInput         = fmt.Errorf("empty input")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrUnknownSession     = fmt.Errorf("unknown session")
	ErrUnsupportedVersion = fmt.Errorf("unsupported encoding version")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrSearchDisabled     = fmt.Errorf("search disabled")
	ErrEmptyWords         = fmt.Errorf("no censored words found")
)

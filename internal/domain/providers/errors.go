package providers

import "errors"

var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("permission denied")
	ErrPrecondition = errors.New("failed precondition")
)

func IsErrBadRequest(err error) bool   { return errors.Is(err, ErrBadRequest) }
func IsErrNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsErrForbidden(err error) bool    { return errors.Is(err, ErrForbidden) }
func IsErrPrecondition(err error) bool { return errors.Is(err, ErrPrecondition) }

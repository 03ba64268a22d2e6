package reports

import "errors"

var (
	ErrUnknownReport = errors.New("unknown report kind")
	ErrInvalidInput  = errors.New("invalid input")
)

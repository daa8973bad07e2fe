package models

import (
	"errors"
)

var (
	ErrUntrained           = errors.New("model has not been fit")
	ErrInvalidHorizon      = errors.New("forecast horizon must be at least 1")
	ErrInsufficientHistory = errors.New("insufficient history to fit model")
	ErrUnknownStrategy     = errors.New("unknown forecast strategy")
	ErrInvalidOrder        = errors.New("invalid model order")
	ErrNonFiniteHistory    = errors.New("history contains non-finite values")
)

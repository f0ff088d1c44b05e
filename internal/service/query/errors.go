package query

import (
	"errors"
)

var (
	ErrTrainNotFound  = errors.New("train not found")
	ErrDateOutOfRange = errors.New("date outside the sale window")
	ErrInvalidSort    = errors.New("sort must be time or cost")
)

package repository

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrAlreadyReleased  = errors.New("already released")
	ErrNotReleased      = errors.New("not released")
	ErrDateOutOfRange   = errors.New("date out of sale window")
	ErrInvalidRoute     = errors.New("invalid route")
	ErrSeatsUnavailable = errors.New("not enough seats")
	ErrAlreadyRefunded  = errors.New("already refunded")
)

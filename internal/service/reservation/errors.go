package reservation

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTrainNotFound     = errors.New("train not found")
	ErrNotReleased       = errors.New("train is not released")
	ErrInvalidRoute      = errors.New("train does not run from origin to destination")
	ErrDateOutOfRange    = errors.New("date outside the sale window")
	ErrInsufficientSeats = errors.New("not enough seats")
	ErrOrderNotFound     = errors.New("order not found")
	ErrAlreadyRefunded   = errors.New("order already refunded")
	ErrRateLimited       = errors.New("rate limited")
)

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

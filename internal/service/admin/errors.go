package admin

import (
	"errors"
)

var (
	ErrDuplicateTrain  = errors.New("train already exists")
	ErrInvalidSpec     = errors.New("invalid train spec")
	ErrTrainNotFound   = errors.New("train not found")
	ErrAlreadyReleased = errors.New("train already released")
)

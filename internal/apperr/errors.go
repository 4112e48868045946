package apperr

import "errors"

var (
	ErrNotFound       = errors.New("card not found")
	ErrDuplicateID    = errors.New("duplicate card id")
	ErrInvalidContent = errors.New("invalid card content")
	ErrInvalidRating  = errors.New("invalid rating")
	ErrCorruptStore   = errors.New("card store file is corrupt")
)

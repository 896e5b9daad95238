package apperrors

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrDuplicateID    = errors.New("duplicate id")
	ErrSpawn          = errors.New("spawn failed")
	ErrPersistence    = errors.New("persistence failed")
	ErrConfigNotFound = errors.New("config not found")
)

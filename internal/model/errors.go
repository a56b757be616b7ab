package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrModelUnavailable is returned when the language model could not answer.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrPersistence is returned when the conversation record could not be stored.
	ErrPersistence = errors.New("persistence failure")
)

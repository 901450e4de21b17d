package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrLocked          = errors.New("resource is locked")
	ErrQueueClosed     = errors.New("task queue closed")
)

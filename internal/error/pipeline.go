package derror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrorKind classifies a stage failure for logs and metrics.
type ErrorKind string

const (
	KindFilesystem ErrorKind = "filesystem"
	KindCanceled   ErrorKind = "canceled"
	KindStage      ErrorKind = "stage"
)

// StageError is a stage-aware pipeline failure.
type StageError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with its stage and a kind derived from the cause.
// A nil err yields nil.
func NewStageError(stage string, err error) *StageError {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	return &StageError{Stage: stage, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &pathErr), errors.As(err, &linkErr),
		errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrExist), errors.Is(err, fs.ErrNotExist):
		return KindFilesystem
	default:
		return KindStage
	}
}

// KindOf returns the kind carried by err, or KindStage when err is not a StageError.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStage
}

package adapter

import "context"

// TaskQueue runs submitted work in the background. Submit returns before
// the task runs and the caller never observes the task's result.
type TaskQueue interface {
	Submit(task func(ctx context.Context) error) error
}

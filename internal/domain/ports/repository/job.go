package repository

import (
	"context"

	"dubbing-orchestrator/internal/domain/model"
)

// JobRepository is the authoritative registry of submitted jobs.
//
// Mutations on unknown ids are silent no-ops: they return nil and never
// create a record. Transition legality is the caller's concern.
type JobRepository interface {
	Create(ctx context.Context, title, sourceLanguage, targetLanguage, filename string) (*model.Job, error)
	// List returns every job, newest created first.
	List(ctx context.Context) ([]*model.Job, error)
	// Get returns domain.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*model.Job, error)
	UpdateStatus(ctx context.Context, id string, status model.JobStatus) error
	// MarkCompleted accepts the final artifact path but does not store it yet.
	MarkCompleted(ctx context.Context, id, outputPath string) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
}

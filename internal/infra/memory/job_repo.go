package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dubbing-orchestrator/internal/domain"
	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/repository"

	"github.com/google/uuid"
)

var _ repository.JobRepository = (*JobRepo)(nil)

type entry struct {
	job *model.Job
	seq uint64
}

// JobRepo keeps every job in process memory for the process lifetime.
// Records leave the store only as copies.
type JobRepo struct {
	mu   sync.RWMutex
	jobs map[string]*entry
	seq  uint64
	now  func() time.Time
}

func NewJobRepo() *JobRepo {
	return &JobRepo{jobs: make(map[string]*entry), now: time.Now}
}

// NewJobRepoWithClock is NewJobRepo with an injectable clock.
func NewJobRepoWithClock(now func() time.Time) *JobRepo {
	r := NewJobRepo()
	r.now = now
	return r
}

func (r *JobRepo) Create(ctx context.Context, title, sourceLanguage, targetLanguage, filename string) (*model.Job, error) {
	now := r.now().UTC()
	job := &model.Job{
		ID:               uuid.NewString(),
		Title:            title,
		SourceLanguage:   sourceLanguage,
		TargetLanguage:   targetLanguage,
		Status:           model.JobStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
		OriginalFilename: filename,
	}

	r.mu.Lock()
	r.seq++
	r.jobs[job.ID] = &entry{job: job, seq: r.seq}
	r.mu.Unlock()

	return job.Clone(), nil
}

func (r *JobRepo) List(ctx context.Context) ([]*model.Job, error) {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.jobs))
	for _, e := range r.jobs {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.job.CreatedAt.Equal(b.job.CreatedAt) {
			return a.job.CreatedAt.After(b.job.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*model.Job, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.job.Clone())
	}
	r.mu.RUnlock()
	return out, nil
}

func (r *JobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.job.Clone(), nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id string, status model.JobStatus) error {
	r.mutate(id, func(j *model.Job) {
		j.Status = status
		if status != model.JobStatusFailed {
			j.ErrorMessage = ""
		}
	})
	return nil
}

func (r *JobRepo) MarkCompleted(ctx context.Context, id, outputPath string) error {
	// outputPath has no home on the record yet
	return r.UpdateStatus(ctx, id, model.JobStatusCompleted)
}

func (r *JobRepo) MarkFailed(ctx context.Context, id, errorMessage string) error {
	r.mutate(id, func(j *model.Job) {
		j.Status = model.JobStatusFailed
		j.ErrorMessage = errorMessage
	})
	return nil
}

// mutate applies fn to a known job and bumps UpdatedAt, never backwards.
// Unknown ids are ignored.
func (r *JobRepo) mutate(id string, fn func(j *model.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.jobs[id]
	if !ok {
		return
	}
	fn(e.job)
	now := r.now().UTC()
	if now.Before(e.job.UpdatedAt) {
		now = e.job.UpdatedAt
	}
	e.job.UpdatedAt = now
}

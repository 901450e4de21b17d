package postgres

import (
	"context"
	"errors"
	"time"

	"dubbing-orchestrator/internal/domain"
	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.JobRepository = (*jobRepo)(nil)

// querier is the subset of pgxpool.Pool / pgx.Tx the repo needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type jobRepo struct {
	db querier
}

func NewJobRepo(pool *pgxpool.Pool) *jobRepo {
	return &jobRepo{db: pool}
}

const jobColumns = `id, title, source_language, target_language, status, original_filename, error_message, created_at, updated_at`

func (r *jobRepo) Create(ctx context.Context, title, sourceLanguage, targetLanguage, filename string) (*model.Job, error) {
	now := time.Now().UTC()
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

	const q = `
INSERT INTO jobs (id, title, source_language, target_language, status, original_filename, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err := r.db.Exec(ctx, q,
		job.ID, job.Title, job.SourceLanguage, job.TargetLanguage, string(job.Status), job.OriginalFilename, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) List(ctx context.Context) ([]*model.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, seq DESC;`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *jobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1;`
	j, err := scanJob(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return j, err
}

// UpdateStatus touches zero rows for unknown ids, which is not an error.
func (r *jobRepo) UpdateStatus(ctx context.Context, id string, status model.JobStatus) error {
	const q = `
UPDATE jobs SET
  status = $2,
  error_message = CASE WHEN $3 THEN error_message ELSE NULL END,
  updated_at = GREATEST(updated_at, now())
WHERE id = $1;`
	_, err := r.db.Exec(ctx, q, id, string(status), status == model.JobStatusFailed)
	return err
}

func (r *jobRepo) MarkCompleted(ctx context.Context, id, outputPath string) error {
	return r.UpdateStatus(ctx, id, model.JobStatusCompleted)
}

func (r *jobRepo) MarkFailed(ctx context.Context, id, errorMessage string) error {
	const q = `
UPDATE jobs SET
  status = 'failed',
  error_message = $2,
  updated_at = GREATEST(updated_at, now())
WHERE id = $1;`
	_, err := r.db.Exec(ctx, q, id, errorMessage)
	return err
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		j      model.Job
		status string
		errMsg *string
	)
	if err := row.Scan(&j.ID, &j.Title, &j.SourceLanguage, &j.TargetLanguage, &status,
		&j.OriginalFilename, &errMsg, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(status)
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	return &j, nil
}

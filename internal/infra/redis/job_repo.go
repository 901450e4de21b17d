package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"dubbing-orchestrator/internal/domain"
	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ repository.JobRepository = (*JobRepo)(nil)

const (
	jobKeyPrefix = "job:"
	jobsIndexKey = "jobs:by_created"
	jobsSeqKey   = "jobs:seq"

	maxTxRetries = 8
)

// jobRecord is the JSON value stored under job:<id>.
type jobRecord struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	SourceLanguage   string    `json:"source_language"`
	TargetLanguage   string    `json:"target_language"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	OriginalFilename string    `json:"original_filename"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	Seq              int64     `json:"seq"`
}

func (r *jobRecord) toModel() *model.Job {
	return &model.Job{
		ID:               r.ID,
		Title:            r.Title,
		SourceLanguage:   r.SourceLanguage,
		TargetLanguage:   r.TargetLanguage,
		Status:           model.JobStatus(r.Status),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		OriginalFilename: r.OriginalFilename,
		ErrorMessage:     r.ErrorMessage,
	}
}

// JobRepo stores jobs as JSON values indexed by a sorted set keyed on
// creation time.
type JobRepo struct {
	cli *redis.Client
	now func() time.Time
}

func NewJobRepo(c *Client) *JobRepo {
	return &JobRepo{cli: c.cli, now: time.Now}
}

func jobKey(id string) string { return jobKeyPrefix + id }

func (r *JobRepo) Create(ctx context.Context, title, sourceLanguage, targetLanguage, filename string) (*model.Job, error) {
	seq, err := r.cli.Incr(ctx, jobsSeqKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis job seq: %w", err)
	}
	now := r.now().UTC()
	rec := &jobRecord{
		ID:               uuid.NewString(),
		Title:            title,
		SourceLanguage:   sourceLanguage,
		TargetLanguage:   targetLanguage,
		Status:           string(model.JobStatusPending),
		CreatedAt:        now,
		UpdatedAt:        now,
		OriginalFilename: filename,
		Seq:              seq,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	_, err = r.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, jobKey(rec.ID), b, 0)
		p.ZAdd(ctx, jobsIndexKey, &redis.Z{Score: float64(now.UnixMicro()), Member: rec.ID})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis job create: %w", err)
	}
	return rec.toModel(), nil
}

func (r *JobRepo) List(ctx context.Context) ([]*model.Job, error) {
	ids, err := r.cli.ZRevRange(ctx, jobsIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis job index: %w", err)
	}
	if len(ids) == 0 {
		return []*model.Job{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKey(id)
	}
	vals, err := r.cli.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis job mget: %w", err)
	}

	recs := make([]*jobRecord, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // index entry without a value
		}
		var rec jobRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("decode job: %w", err)
		}
		recs = append(recs, &rec)
	}
	// equal scores come back in member order; restore insertion order
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Seq > b.Seq
	})

	out := make([]*model.Job, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out, nil
}

func (r *JobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	b, err := r.cli.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec jobRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return rec.toModel(), nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id string, status model.JobStatus) error {
	return r.mutate(ctx, id, func(rec *jobRecord) {
		rec.Status = string(status)
		if status != model.JobStatusFailed {
			rec.ErrorMessage = ""
		}
	})
}

func (r *JobRepo) MarkCompleted(ctx context.Context, id, outputPath string) error {
	return r.UpdateStatus(ctx, id, model.JobStatusCompleted)
}

func (r *JobRepo) MarkFailed(ctx context.Context, id, errorMessage string) error {
	return r.mutate(ctx, id, func(rec *jobRecord) {
		rec.Status = string(model.JobStatusFailed)
		rec.ErrorMessage = errorMessage
	})
}

// mutate runs fn inside a WATCH/MULTI transaction, retrying when another
// writer touched the key first. Missing keys are left alone.
func (r *JobRepo) mutate(ctx context.Context, id string, fn func(rec *jobRecord)) error {
	key := jobKey(id)
	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var rec jobRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return fmt.Errorf("decode job: %w", err)
		}
		fn(&rec)
		now := r.now().UTC()
		if now.Before(rec.UpdatedAt) {
			now = rec.UpdatedAt
		}
		rec.UpdatedAt = now
		out, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.cli.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis job %s: too many concurrent updates", id)
}

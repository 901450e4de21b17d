// File: internal/usecase/job_uc.go
package usecase

import (
	"context"
	"fmt"
	"io"

	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/adapter"
	"dubbing-orchestrator/internal/domain/ports/repository"
	"dubbing-orchestrator/internal/infra/logging"
	"dubbing-orchestrator/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// SubmitJobInput carries one upload. Media may be nil when no media store
// is configured.
type SubmitJobInput struct {
	Title          string
	SourceLanguage string
	TargetLanguage string
	Filename       string
	Media          io.Reader
}

// Languages lists the configured language codes. They are informational
// and never checked on submit.
type Languages struct {
	Input  []string `json:"input"`
	Output []string `json:"output"`
}

type JobUseCase interface {
	// Submit creates a pending job and schedules its pipeline without
	// waiting for it.
	Submit(ctx context.Context, in SubmitJobInput) (*model.Job, error)
	List(ctx context.Context) ([]*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	SupportedLanguages() Languages
}

type jobUC struct {
	jobs     repository.JobRepository
	media    adapter.MediaStore
	queue    adapter.TaskQueue
	pipeline PipelineUseCase
	langs    Languages
	log      *zerolog.Logger
}

func NewJobUseCase(
	jobs repository.JobRepository,
	media adapter.MediaStore,
	queue adapter.TaskQueue,
	pipeline PipelineUseCase,
	langs Languages,
	logger *zerolog.Logger,
) *jobUC {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &jobUC{jobs: jobs, media: media, queue: queue, pipeline: pipeline, langs: langs, log: logger}
}

func (u *jobUC) Submit(ctx context.Context, in SubmitJobInput) (*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.Submit")()

	// stage first so a failed upload never leaves a pending job behind
	var ref string
	if u.media != nil && in.Media != nil {
		r, err := u.media.Stage(ctx, in.Filename, in.Media)
		if err != nil {
			return nil, fmt.Errorf("stage upload: %w", err)
		}
		ref = r
	}

	job, err := u.jobs.Create(ctx, in.Title, in.SourceLanguage, in.TargetLanguage, in.Filename)
	if err != nil {
		return nil, err
	}
	metrics.IncJobSubmitted()

	jobID := job.ID
	traceID := logging.TraceID(ctx)
	err = u.queue.Submit(func(ctx context.Context) error {
		if traceID != "" {
			ctx = logging.WithTraceID(ctx, traceID)
		}
		return u.pipeline.RunPipelineForJob(ctx, jobID, ref)
	})
	if err != nil {
		l := logging.With(logging.WithJobID(ctx, jobID), u.log)
		l.Error().Err(err).Msg("could not schedule pipeline")
		// the job would otherwise stay pending with nothing left to drive it
		storeCtx := context.WithoutCancel(ctx)
		if uerr := u.jobs.UpdateStatus(storeCtx, jobID, model.JobStatusProcessing); uerr == nil {
			uerr = u.jobs.MarkFailed(storeCtx, jobID, "not scheduled: "+err.Error())
			if uerr == nil {
				metrics.IncJobFinished(string(model.JobStatusFailed))
			}
		} else {
			l.Warn().Err(uerr).Msg("could not mark unscheduled job failed")
		}
		return nil, err
	}

	l := logging.With(logging.WithJobID(ctx, jobID), u.log)
	l.Info().Str("title", job.Title).Msg("job submitted")
	return job, nil
}

func (u *jobUC) List(ctx context.Context) ([]*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.List")()
	return u.jobs.List(ctx)
}

func (u *jobUC) Get(ctx context.Context, id string) (*model.Job, error) {
	defer logging.TraceDuration(u.log, "JobUC.Get")()
	return u.jobs.Get(ctx, id)
}

func (u *jobUC) SupportedLanguages() Languages {
	return Languages{
		Input:  append([]string(nil), u.langs.Input...),
		Output: append([]string(nil), u.langs.Output...),
	}
}

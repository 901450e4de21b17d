// File: internal/usecase/pipeline_uc.go
package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"dubbing-orchestrator/internal/domain"
	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/adapter"
	"dubbing-orchestrator/internal/domain/ports/repository"
	derror "dubbing-orchestrator/internal/error"
	"dubbing-orchestrator/internal/infra/logging"
	"dubbing-orchestrator/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ PipelineUseCase = (*pipelineUC)(nil)

type PipelineUseCase interface {
	// RunPipelineForJob drives one job through every stage. Stage failures
	// end up on the job record as status failed; the returned error only
	// reports store or lock failures.
	RunPipelineForJob(ctx context.Context, jobID, mediaRef string) error
}

type PipelineOptions struct {
	TempDir string
	LockTTL time.Duration
}

type pipelineUC struct {
	jobs   repository.JobRepository
	stages adapter.Stages
	media  adapter.MediaStore
	locker adapter.Locker
	opts   PipelineOptions
	log    *zerolog.Logger
}

// NewPipelineUseCase wires the orchestrator. media and locker are optional.
func NewPipelineUseCase(
	jobs repository.JobRepository,
	stages adapter.Stages,
	media adapter.MediaStore,
	locker adapter.Locker,
	opts PipelineOptions,
	logger *zerolog.Logger,
) *pipelineUC {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	return &pipelineUC{
		jobs:   jobs,
		stages: stages,
		media:  media,
		locker: locker,
		opts:   opts,
		log:    logger,
	}
}

func (p *pipelineUC) RunPipelineForJob(ctx context.Context, jobID, mediaRef string) error {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, p.log)
	defer logging.TraceDuration(log, "PipelineUC.RunPipelineForJob")()

	job, err := p.jobs.Get(ctx, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().Msg("pipeline requested for unknown job")
		return nil
	}
	if err != nil {
		return err
	}

	if p.locker != nil {
		key := "pipeline:" + jobID
		token, err := p.locker.TryLock(ctx, key, p.opts.LockTTL)
		if errors.Is(err, domain.ErrLocked) {
			log.Info().Msg("pipeline already running for job, skipping")
			return nil
		}
		if err != nil {
			return err
		}
		defer func() {
			if err := p.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn().Err(err).Msg("pipeline unlock failed")
			}
		}()
		// re-read under the lock; another run may have finished meanwhile
		if job, err = p.jobs.Get(ctx, jobID); err != nil {
			return err
		}
	}

	if !job.Status.CanTransitionTo(model.JobStatusProcessing) {
		log.Info().
			Str("status", string(job.Status)).
			Bool("terminal", job.Status.IsTerminal()).
			Msg("job is not pending, skipping")
		return nil
	}

	if err := p.jobs.UpdateStatus(ctx, jobID, model.JobStatusProcessing); err != nil {
		return err
	}

	finalVideo, runErr := p.run(ctx, log, job, mediaRef)

	// the outcome is recorded even when the run was cancelled
	storeCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		kind := derror.KindOf(runErr)
		stage := ""
		var se *derror.StageError
		if errors.As(runErr, &se) {
			stage = se.Stage
		}
		log.Error().Err(runErr).Str("stage", stage).Str("kind", string(kind)).Msg("pipeline failed")
		metrics.IncPipelineError(stage, string(kind))
		metrics.IncJobFinished(string(model.JobStatusFailed))
		return p.jobs.MarkFailed(storeCtx, jobID, runErr.Error())
	}

	log.Info().Str("output", finalVideo).Msg("pipeline completed")
	metrics.IncJobFinished(string(model.JobStatusCompleted))
	return p.jobs.MarkCompleted(storeCtx, jobID, finalVideo)
}

// run executes the stage chain in the job's working directory and returns
// the final video path.
func (p *pipelineUC) run(ctx context.Context, log *zerolog.Logger, job *model.Job, mediaRef string) (string, error) {
	baseDir := filepath.Join(p.opts.TempDir, job.ID)
	originalVideo := filepath.Join(baseDir, adapter.OriginalVideoFile)

	if err := p.step(log, adapter.StageWorkspace, func() error {
		return os.MkdirAll(baseDir, 0o755)
	}); err != nil {
		return "", err
	}

	if mediaRef != "" && p.media != nil {
		if err := p.step(log, adapter.StageIngest, func() error {
			return p.media.Fetch(ctx, mediaRef, originalVideo)
		}); err != nil {
			return "", err
		}
	}

	var dialogue, background string
	if err := p.step(log, adapter.StageSeparation, func() (err error) {
		dialogue, background, err = p.stages.Separator.Separate(ctx, originalVideo, baseDir)
		return err
	}); err != nil {
		return "", err
	}

	var segments []model.TranscriptSegment
	if err := p.step(log, adapter.StageTranscribe, func() (err error) {
		segments, err = p.stages.Transcriber.Transcribe(ctx, dialogue, job.SourceLanguage)
		return err
	}); err != nil {
		return "", err
	}

	var translated []model.TranscriptSegment
	if err := p.step(log, adapter.StageTranslate, func() (err error) {
		translated, err = p.stages.Translator.Translate(ctx, segments, job.SourceLanguage, job.TargetLanguage)
		return err
	}); err != nil {
		return "", err
	}

	var dubbed string
	if err := p.step(log, adapter.StageSynthesis, func() (err error) {
		// no voice identity wiring yet
		dubbed, err = p.stages.Synthesizer.Synthesize(ctx, translated, baseDir, "")
		return err
	}); err != nil {
		return "", err
	}

	var finalAudio string
	if err := p.step(log, adapter.StageMixing, func() (err error) {
		finalAudio, err = p.stages.Mixer.Mix(ctx, dubbed, background, baseDir)
		return err
	}); err != nil {
		return "", err
	}

	var finalVideo string
	if err := p.step(log, adapter.StageRendering, func() (err error) {
		finalVideo, err = p.stages.Renderer.Render(ctx, originalVideo, finalAudio, baseDir)
		return err
	}); err != nil {
		return "", err
	}
	return finalVideo, nil
}

// step times fn, records it and attributes any failure to stage.
func (p *pipelineUC) step(log *zerolog.Logger, stage string, fn func() error) error {
	done := logging.TraceDuration(log, stage)
	start := time.Now()
	err := fn()
	done()
	metrics.ObserveStage(stage, time.Since(start), err == nil)
	if err != nil {
		return derror.NewStageError(stage, err)
	}
	return nil
}

package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/adapter"
	derror "dubbing-orchestrator/internal/error"
	"dubbing-orchestrator/internal/infra/adapters/stages"
	"dubbing-orchestrator/internal/infra/memory"
)

func newPipeline(t *testing.T, repo *recordingRepo, st func(*stagesOverride)) (*pipelineUC, string) {
	t.Helper()
	tmp := t.TempDir()
	all := stages.Placeholders()
	o := &stagesOverride{}
	if st != nil {
		st(o)
	}
	if o.transcriber != nil {
		all.Transcriber = o.transcriber
	}
	if o.separator != nil {
		all.Separator = o.separator
	}
	var media adapter.MediaStore
	if o.media != nil {
		media = o.media
	}
	var locker adapter.Locker
	if o.locker != nil {
		locker = o.locker
	}
	p := NewPipelineUseCase(repo, all, media, locker, PipelineOptions{TempDir: o.tempDir(tmp)}, nil)
	return p, tmp
}

type stagesOverride struct {
	transcriber *failingTranscriber
	separator   *countingSeparator
	media       *fakeMedia
	locker      *memory.Locker
	temp        string
}

func (o *stagesOverride) tempDir(def string) string {
	if o.temp != "" {
		return o.temp
	}
	return def
}

func TestPipeline_CompletesJob(t *testing.T) {
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	p, tmp := newPipeline(t, repo, nil)
	ctx := context.Background()

	job, _ := repo.Create(ctx, "Scene 1", "en", "ko", "clip.mp4")
	if err := p.RunPipelineForJob(ctx, job.ID, ""); err != nil {
		t.Fatalf("RunPipelineForJob: %v", err)
	}

	got, _ := repo.Get(ctx, job.ID)
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("want completed, got %s", got.Status)
	}
	if got.ErrorMessage != "" {
		t.Fatalf("error message should be empty, got %q", got.ErrorMessage)
	}

	want := []model.JobStatus{model.JobStatusProcessing, model.JobStatusCompleted}
	if s := repo.seen(); len(s) != 2 || s[0] != want[0] || s[1] != want[1] {
		t.Fatalf("transitions: want %v got %v", want, s)
	}

	workDir := filepath.Join(tmp, job.ID)
	if fi, err := os.Stat(workDir); err != nil || !fi.IsDir() {
		t.Fatalf("working dir not created: %v", err)
	}
	if repo.output != filepath.Join(workDir, adapter.FinalVideoFile) {
		t.Fatalf("unexpected output path %q", repo.output)
	}
}

func TestPipeline_StageFailureMarksFailed(t *testing.T) {
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	p, _ := newPipeline(t, repo, func(o *stagesOverride) {
		o.transcriber = &failingTranscriber{err: errors.New("model unavailable")}
	})
	ctx := context.Background()

	job, _ := repo.Create(ctx, "T", "en", "ko", "clip.mp4")
	if err := p.RunPipelineForJob(ctx, job.ID, ""); err != nil {
		t.Fatalf("stage failures must not surface: %v", err)
	}

	got, _ := repo.Get(ctx, job.ID)
	if got.Status != model.JobStatusFailed {
		t.Fatalf("want failed, got %s", got.Status)
	}
	if got.ErrorMessage != "transcription: model unavailable" {
		t.Fatalf("unexpected error message %q", got.ErrorMessage)
	}
	s := repo.seen()
	if len(s) != 2 || s[len(s)-1] != model.JobStatusFailed {
		t.Fatalf("nothing may follow failed: %v", s)
	}
}

func TestPipeline_FilesystemFailure(t *testing.T) {
	notADir := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(notADir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	p, _ := newPipeline(t, repo, func(o *stagesOverride) { o.temp = notADir })
	ctx := context.Background()

	job, _ := repo.Create(ctx, "T", "en", "ko", "clip.mp4")
	_ = p.RunPipelineForJob(ctx, job.ID, "")

	got, _ := repo.Get(ctx, job.ID)
	if got.Status != model.JobStatusFailed {
		t.Fatalf("want failed, got %s", got.Status)
	}
	if !strings.HasPrefix(got.ErrorMessage, "workspace: ") {
		t.Fatalf("unexpected error message %q", got.ErrorMessage)
	}
}

func TestPipeline_UnknownJobIsNoOp(t *testing.T) {
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	p, _ := newPipeline(t, repo, nil)

	if err := p.RunPipelineForJob(context.Background(), "missing", ""); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
	if len(repo.seen()) != 0 {
		t.Fatalf("no writes expected, got %v", repo.seen())
	}
	jobs, _ := repo.List(context.Background())
	if len(jobs) != 0 {
		t.Fatalf("no record may be created")
	}
}

func TestPipeline_NonPendingJobIsNotRedriven(t *testing.T) {
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	sep := &countingSeparator{}
	p, _ := newPipeline(t, repo, func(o *stagesOverride) { o.separator = sep })
	ctx := context.Background()

	job, _ := repo.Create(ctx, "T", "en", "ko", "clip.mp4")
	if err := p.RunPipelineForJob(ctx, job.ID, ""); err != nil {
		t.Fatal(err)
	}
	if err := p.RunPipelineForJob(ctx, job.ID, ""); err != nil {
		t.Fatal(err)
	}
	if sep.count() != 1 {
		t.Fatalf("stages ran %d times, want 1", sep.count())
	}
	got, _ := repo.Get(ctx, job.ID)
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("want completed, got %s", got.Status)
	}
}

func TestPipeline_ProcessingJobIsSkipped(t *testing.T) {
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	sep := &countingSeparator{}
	p, _ := newPipeline(t, repo, func(o *stagesOverride) { o.separator = sep })
	ctx := context.Background()

	job, _ := repo.Create(ctx, "T", "en", "ko", "clip.mp4")
	if err := repo.JobRepository.UpdateStatus(ctx, job.ID, model.JobStatusProcessing); err != nil {
		t.Fatal(err)
	}
	if err := p.RunPipelineForJob(ctx, job.ID, ""); err != nil {
		t.Fatal(err)
	}
	if sep.count() != 0 {
		t.Fatalf("stages ran %d times, want 0", sep.count())
	}
	got, _ := repo.Get(ctx, job.ID)
	if got.Status != model.JobStatusProcessing {
		t.Fatalf("want processing, got %s", got.Status)
	}
}

func TestPipeline_LockHeldSkipsRun(t *testing.T) {
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	locker := memory.NewLocker()
	sep := &countingSeparator{}
	p, _ := newPipeline(t, repo, func(o *stagesOverride) {
		o.locker = locker
		o.separator = sep
	})
	ctx := context.Background()

	job, _ := repo.Create(ctx, "T", "en", "ko", "clip.mp4")
	token, err := locker.TryLock(ctx, "pipeline:"+job.ID, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.RunPipelineForJob(ctx, job.ID, ""); err != nil {
		t.Fatal(err)
	}
	if sep.count() != 0 {
		t.Fatalf("stages must not run while the job is locked")
	}
	got, _ := repo.Get(ctx, job.ID)
	if got.Status != model.JobStatusPending {
		t.Fatalf("want pending, got %s", got.Status)
	}

	_ = locker.Unlock(ctx, "pipeline:"+job.ID, token)
	if err := p.RunPipelineForJob(ctx, job.ID, ""); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.Get(ctx, job.ID)
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("want completed after unlock, got %s", got.Status)
	}
	// lock released after the run
	if _, err := locker.TryLock(ctx, "pipeline:"+job.ID, time.Minute); err != nil {
		t.Fatalf("lock not released: %v", err)
	}
}

func TestPipeline_IngestsStagedMedia(t *testing.T) {
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	media := newFakeMedia()
	p, tmp := newPipeline(t, repo, func(o *stagesOverride) { o.media = media })
	ctx := context.Background()

	ref, _ := media.Stage(ctx, "clip.mp4", strings.NewReader("video-bytes"))
	job, _ := repo.Create(ctx, "T", "en", "ko", "clip.mp4")
	if err := p.RunPipelineForJob(ctx, job.ID, ref); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(tmp, job.ID, adapter.OriginalVideoFile))
	if err != nil {
		t.Fatalf("original media not ingested: %v", err)
	}
	if string(b) != "video-bytes" {
		t.Fatalf("unexpected content %q", b)
	}
}

func TestPipeline_IngestFailure(t *testing.T) {
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	media := newFakeMedia()
	media.fetchErr = os.ErrNotExist
	p, _ := newPipeline(t, repo, func(o *stagesOverride) { o.media = media })
	ctx := context.Background()

	job, _ := repo.Create(ctx, "T", "en", "ko", "clip.mp4")
	_ = p.RunPipelineForJob(ctx, job.ID, "ref-gone")

	got, _ := repo.Get(ctx, job.ID)
	if got.Status != model.JobStatusFailed || !strings.HasPrefix(got.ErrorMessage, "ingest: ") {
		t.Fatalf("unexpected job %+v", got)
	}
}

func TestPipeline_CanceledContext(t *testing.T) {
	repo := &recordingRepo{JobRepository: memory.NewJobRepo()}
	p, _ := newPipeline(t, repo, nil)

	job, _ := repo.Create(context.Background(), "T", "en", "ko", "clip.mp4")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.run(ctx, p.log, job, "")
	if derror.KindOf(err) != derror.KindCanceled {
		t.Fatalf("want canceled kind, got %v (%v)", derror.KindOf(err), err)
	}
}

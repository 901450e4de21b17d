package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/repository"
)

// ---- Fakes ----

// recordingRepo wraps a real store and remembers every status it was asked
// to write.
type recordingRepo struct {
	repository.JobRepository
	mu       sync.Mutex
	statuses []model.JobStatus
	output   string
}

func (r *recordingRepo) UpdateStatus(ctx context.Context, id string, status model.JobStatus) error {
	r.mu.Lock()
	r.statuses = append(r.statuses, status)
	r.mu.Unlock()
	return r.JobRepository.UpdateStatus(ctx, id, status)
}

func (r *recordingRepo) MarkCompleted(ctx context.Context, id, outputPath string) error {
	r.mu.Lock()
	r.statuses = append(r.statuses, model.JobStatusCompleted)
	r.output = outputPath
	r.mu.Unlock()
	return r.JobRepository.MarkCompleted(ctx, id, outputPath)
}

func (r *recordingRepo) MarkFailed(ctx context.Context, id, msg string) error {
	r.mu.Lock()
	r.statuses = append(r.statuses, model.JobStatusFailed)
	r.mu.Unlock()
	return r.JobRepository.MarkFailed(ctx, id, msg)
}

func (r *recordingRepo) seen() []model.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.JobStatus(nil), r.statuses...)
}

type failingTranscriber struct{ err error }

func (f *failingTranscriber) Transcribe(ctx context.Context, dialogueAudio, language string) ([]model.TranscriptSegment, error) {
	return nil, f.err
}

type countingSeparator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSeparator) Separate(ctx context.Context, mixedAudio, outputDir string) (string, string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return mixedAudio, mixedAudio, nil
}

func (c *countingSeparator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// fakeMedia stages uploads in memory and writes them out on Fetch.
type fakeMedia struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	stageErr error
	fetchErr error
}

func newFakeMedia() *fakeMedia { return &fakeMedia{blobs: map[string][]byte{}} }

func (m *fakeMedia) Stage(ctx context.Context, filename string, r io.Reader) (string, error) {
	if m.stageErr != nil {
		return "", m.stageErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := "ref-" + filename
	m.blobs[ref] = b
	return ref, nil
}

func (m *fakeMedia) Fetch(ctx context.Context, ref, dst string) error {
	if m.fetchErr != nil {
		return m.fetchErr
	}
	m.mu.Lock()
	b, ok := m.blobs[ref]
	m.mu.Unlock()
	if !ok {
		return errors.New("unknown ref")
	}
	return os.WriteFile(dst, b, 0o644)
}

// syncQueue runs each task inline.
type syncQueue struct {
	err  error
	runs int
	last error
}

func (q *syncQueue) Submit(task func(ctx context.Context) error) error {
	if q.err != nil {
		return q.err
	}
	q.runs++
	q.last = task(context.Background())
	return nil
}

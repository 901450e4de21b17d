package stages

import (
	"context"
	"path/filepath"

	"dubbing-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.Renderer = (*VideoRenderer)(nil)

type VideoRenderer struct{}

func NewVideoRenderer() *VideoRenderer { return &VideoRenderer{} }

func (r *VideoRenderer) Render(ctx context.Context, originalVideo, finalAudio, outputDir string) (string, error) {
	if err := ensureDir(ctx, outputDir); err != nil {
		return "", err
	}
	return filepath.Join(outputDir, adapter.FinalVideoFile), nil
}

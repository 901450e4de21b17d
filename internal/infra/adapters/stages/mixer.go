package stages

import (
	"context"
	"path/filepath"

	"dubbing-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.Mixer = (*DialogueMixer)(nil)

type DialogueMixer struct{}

func NewDialogueMixer() *DialogueMixer { return &DialogueMixer{} }

func (m *DialogueMixer) Mix(ctx context.Context, translatedDialogue, backgroundAudio, outputDir string) (string, error) {
	if err := ensureDir(ctx, outputDir); err != nil {
		return "", err
	}
	return filepath.Join(outputDir, adapter.FinalAudioFile), nil
}

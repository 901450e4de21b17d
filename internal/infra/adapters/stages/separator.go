package stages

import (
	"context"

	"dubbing-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.Separator = (*DialogueSeparator)(nil)

// DialogueSeparator stands in for a source-separation model.
type DialogueSeparator struct{}

func NewDialogueSeparator() *DialogueSeparator { return &DialogueSeparator{} }

// Separate returns the input path for both tracks until a real model
// writes dialogue.wav and background.wav into outputDir.
func (s *DialogueSeparator) Separate(ctx context.Context, mixedAudio, outputDir string) (string, string, error) {
	if err := ensureDir(ctx, outputDir); err != nil {
		return "", "", err
	}
	return mixedAudio, mixedAudio, nil
}

package stages

import (
	"context"
	"path/filepath"

	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.Synthesizer = (*VoiceCloningTTS)(nil)

// VoiceCloningTTS stands in for a voice-cloning speech synthesizer.
// The output path does not depend on the segments or the voice.
type VoiceCloningTTS struct{}

func NewVoiceCloningTTS() *VoiceCloningTTS { return &VoiceCloningTTS{} }

func (s *VoiceCloningTTS) Synthesize(ctx context.Context, segments []model.TranscriptSegment, outputDir, voiceID string) (string, error) {
	if err := ensureDir(ctx, outputDir); err != nil {
		return "", err
	}
	return filepath.Join(outputDir, adapter.TranslatedDialogueFile), nil
}

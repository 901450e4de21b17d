package stages

import (
	"context"
	"fmt"

	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.Transcriber = (*PlaceholderASR)(nil)

// PlaceholderASR emits a single synthetic segment per call.
type PlaceholderASR struct{}

func NewPlaceholderASR() *PlaceholderASR { return &PlaceholderASR{} }

func (a *PlaceholderASR) Transcribe(ctx context.Context, dialogueAudio, language string) ([]model.TranscriptSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []model.TranscriptSegment{{
		Start: 0.0,
		End:   1.0,
		Text:  fmt.Sprintf("[ASR placeholder for language=%s]", language),
	}}, nil
}

package stages

import (
	"context"
	"fmt"

	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.Translator = (*PlaceholderTranslator)(nil)

// PlaceholderTranslator tags each segment with the language pair.
type PlaceholderTranslator struct{}

func NewPlaceholderTranslator() *PlaceholderTranslator { return &PlaceholderTranslator{} }

func (t *PlaceholderTranslator) Translate(ctx context.Context, segments []model.TranscriptSegment, sourceLanguage, targetLanguage string) ([]model.TranscriptSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.TranscriptSegment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, model.TranscriptSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  fmt.Sprintf("[%s->%s] %s", sourceLanguage, targetLanguage, seg.Text),
		})
	}
	return out, nil
}

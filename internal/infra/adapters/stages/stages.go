// Package stages holds the placeholder implementations of the six pipeline
// steps. None of them touch media content: each one creates its output
// directory and returns a conventional path (or synthetic transcript), so
// real separation/ASR/MT/TTS/muxing engines can replace them one at a time.
package stages

import (
	"context"
	"fmt"
	"os"

	"dubbing-orchestrator/internal/domain/ports/adapter"
)

// Placeholders returns the stub implementation of every stage.
func Placeholders() adapter.Stages {
	return adapter.Stages{
		Separator:   NewDialogueSeparator(),
		Transcriber: NewPlaceholderASR(),
		Translator:  NewPlaceholderTranslator(),
		Synthesizer: NewVoiceCloningTTS(),
		Mixer:       NewDialogueMixer(),
		Renderer:    NewVideoRenderer(),
	}
}

func ensureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

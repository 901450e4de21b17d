package adapter

import (
	"context"

	"dubbing-orchestrator/internal/domain/model"
)

// Stage names, used for logging, metrics and error attribution.
const (
	StageWorkspace  = "workspace"
	StageIngest     = "ingest"
	StageSeparation = "separation"
	StageTranscribe = "transcription"
	StageTranslate  = "translation"
	StageSynthesis  = "synthesis"
	StageMixing     = "mixing"
	StageRendering  = "rendering"
)

// File names inside a job's working directory.
const (
	OriginalVideoFile      = "original.mp4"
	TranslatedDialogueFile = "translated_dialogue.wav"
	FinalAudioFile         = "final_audio.wav"
	FinalVideoFile         = "final_video.mp4"
)

// Separator splits mixed media into a dialogue track and a background track.
type Separator interface {
	Separate(ctx context.Context, mixedAudio, outputDir string) (dialogue, background string, err error)
}

// Transcriber turns dialogue audio into ordered, timestamped segments.
type Transcriber interface {
	Transcribe(ctx context.Context, dialogueAudio, language string) ([]model.TranscriptSegment, error)
}

// Translator rewrites segment text; it must keep length, order and timings.
type Translator interface {
	Translate(ctx context.Context, segments []model.TranscriptSegment, sourceLanguage, targetLanguage string) ([]model.TranscriptSegment, error)
}

// Synthesizer renders translated segments as speech. An empty voiceID
// means "no specific voice identity".
type Synthesizer interface {
	Synthesize(ctx context.Context, segments []model.TranscriptSegment, outputDir, voiceID string) (string, error)
}

// Mixer lays the translated dialogue over the preserved background.
type Mixer interface {
	Mix(ctx context.Context, translatedDialogue, backgroundAudio, outputDir string) (string, error)
}

// Renderer attaches the final audio to the original video.
type Renderer interface {
	Render(ctx context.Context, originalVideo, finalAudio, outputDir string) (string, error)
}

// Stages bundles one implementation per pipeline step so each can be
// swapped independently.
type Stages struct {
	Separator   Separator
	Transcriber Transcriber
	Translator  Translator
	Synthesizer Synthesizer
	Mixer       Mixer
	Renderer    Renderer
}

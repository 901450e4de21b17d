package stages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/domain/ports/adapter"
)

func TestDialogueSeparator_Separate(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "job")
	in := filepath.Join(out, adapter.OriginalVideoFile)

	dialogue, background, err := NewDialogueSeparator().Separate(ctx, in, out)
	if err != nil {
		t.Fatalf("Separate returned error: %v", err)
	}
	if dialogue != in || background != in {
		t.Fatalf("expected both tracks to point at the input, got %q / %q", dialogue, background)
	}
	if fi, err := os.Stat(out); err != nil || !fi.IsDir() {
		t.Fatalf("expected output dir to exist: %v", err)
	}
}

func TestPlaceholderASR_Transcribe(t *testing.T) {
	segs, err := NewPlaceholderASR().Transcribe(context.Background(), "dialogue.wav", "ja")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	want := []model.TranscriptSegment{{Start: 0, End: 1, Text: "[ASR placeholder for language=ja]"}}
	if !reflect.DeepEqual(segs, want) {
		t.Fatalf("expected %+v, got %+v", want, segs)
	}
}

func TestPlaceholderTranslator_Translate(t *testing.T) {
	t.Run("marks text and keeps timings", func(t *testing.T) {
		in := []model.TranscriptSegment{{Start: 0.0, End: 1.0, Text: "hello"}}
		out, err := NewPlaceholderTranslator().Translate(context.Background(), in, "en", "ko")
		if err != nil {
			t.Fatalf("Translate returned error: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("expected 1 segment, got %d", len(out))
		}
		if out[0].Text != "[en->ko] hello" || out[0].Start != 0.0 || out[0].End != 1.0 {
			t.Fatalf("unexpected segment %+v", out[0])
		}
		if in[0].Text != "hello" {
			t.Fatal("input segments must not be modified")
		}
	})

	t.Run("preserves length and order", func(t *testing.T) {
		in := []model.TranscriptSegment{
			{Start: 2, End: 3, Text: "b"},
			{Start: 0, End: 1, Text: "a"},
			{Start: 5, End: 5, Text: ""},
		}
		out, err := NewPlaceholderTranslator().Translate(context.Background(), in, "ko", "ja")
		if err != nil {
			t.Fatalf("Translate returned error: %v", err)
		}
		if len(out) != len(in) {
			t.Fatalf("expected %d segments, got %d", len(in), len(out))
		}
		for i := range in {
			if out[i].Start != in[i].Start || out[i].End != in[i].End {
				t.Errorf("segment %d timings changed: %+v -> %+v", i, in[i], out[i])
			}
			if out[i].Text != "[ko->ja] "+in[i].Text {
				t.Errorf("segment %d unexpected text %q", i, out[i].Text)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		out, err := NewPlaceholderTranslator().Translate(context.Background(), nil, "en", "ko")
		if err != nil || len(out) != 0 {
			t.Fatalf("expected empty output, got %v, %v", out, err)
		}
	})
}

func TestOutputStages_FixedPaths(t *testing.T) {
	ctx := context.Background()
	out := filepath.Join(t.TempDir(), "a", "b")

	synth, err := NewVoiceCloningTTS().Synthesize(ctx, nil, out, "")
	if err != nil || synth != filepath.Join(out, adapter.TranslatedDialogueFile) {
		t.Fatalf("Synthesize: %q, %v", synth, err)
	}
	mixed, err := NewDialogueMixer().Mix(ctx, synth, "bg.wav", out)
	if err != nil || mixed != filepath.Join(out, adapter.FinalAudioFile) {
		t.Fatalf("Mix: %q, %v", mixed, err)
	}
	video, err := NewVideoRenderer().Render(ctx, "original.mp4", mixed, out)
	if err != nil || video != filepath.Join(out, adapter.FinalVideoFile) {
		t.Fatalf("Render: %q, %v", video, err)
	}
}

func TestStages_DirectoryFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := filepath.Join(blocker, "job")

	if _, _, err := NewDialogueSeparator().Separate(context.Background(), "in.mp4", out); err == nil {
		t.Fatal("expected Separate to fail when the output dir cannot be created")
	}
	if _, err := NewDialogueMixer().Mix(context.Background(), "a", "b", out); err == nil {
		t.Fatal("expected Mix to fail when the output dir cannot be created")
	}
}

func TestStages_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewPlaceholderASR().Transcribe(ctx, "d.wav", "en"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := NewVideoRenderer().Render(ctx, "v", "a", t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPlaceholders_AllStagesSet(t *testing.T) {
	s := Placeholders()
	if s.Separator == nil || s.Transcriber == nil || s.Translator == nil ||
		s.Synthesizer == nil || s.Mixer == nil || s.Renderer == nil {
		t.Fatalf("incomplete stage bundle: %+v", s)
	}
}

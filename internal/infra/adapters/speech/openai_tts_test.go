// File: internal/infra/adapters/speech/openai_tts_test.go
package speech

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"shorts-factory/internal/domain"
)

func TestSynthesize_ValidationBeforeNetwork(t *testing.T) {
	// The API key is fake: every case below must fail locally, before any
	// request could be attempted.
	tts, err := NewOpenAITTS("test-key", "", t.TempDir())
	if err != nil {
		t.Fatalf("NewOpenAITTS: %v", err)
	}

	t.Run("empty transcript", func(t *testing.T) {
		if _, err := tts.Synthesize(context.Background(), "   ", "alloy"); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("want ErrValidation, got %v", err)
		}
	})

	t.Run("transcript over the character ceiling", func(t *testing.T) {
		long := strings.Repeat("a", 4097)
		if _, err := tts.Synthesize(context.Background(), long, "alloy"); !errors.Is(err, domain.ErrInputTooLarge) {
			t.Fatalf("want ErrInputTooLarge, got %v", err)
		}
	})

	t.Run("unsupported voice", func(t *testing.T) {
		if _, err := tts.Synthesize(context.Background(), "hello", "morgan"); !errors.Is(err, domain.ErrInvalidVoice) {
			t.Fatalf("want ErrInvalidVoice, got %v", err)
		}
	})
}

func TestEstimateDuration(t *testing.T) {
	// 180 words at 180 wpm is exactly one minute.
	text := strings.TrimSpace(strings.Repeat("word ", 180))
	if got := estimateDuration(text); math.Abs(got-60) > 1e-9 {
		t.Fatalf("180 words: want 60s, got %v", got)
	}
	if got := estimateDuration("one two three"); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("3 words: want 1s, got %v", got)
	}
}

func TestNewOpenAITTS_RequiresKey(t *testing.T) {
	if _, err := NewOpenAITTS("", "tts-1", ""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

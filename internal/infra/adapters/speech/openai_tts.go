// File: internal/infra/adapters/speech/openai_tts.go
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/adapter"
	"shorts-factory/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.SpeechSynthesizer = (*OpenAITTS)(nil)

// wordsPerMinute is the assumed narration pace for the duration estimate.
const wordsPerMinute = 180

// OpenAITTS synthesizes narration with the OpenAI text-to-speech API and
// writes the MP3 to a local work directory.
type OpenAITTS struct {
	client  openai.Client
	model   string
	workDir string
}

func NewOpenAITTS(apiKey, model, workDir string) (*OpenAITTS, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "tts-1"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &OpenAITTS{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		workDir: workDir,
	}, nil
}

// Synthesize validates the input before any network call: length and voice
// rejections must never consume provider quota.
func (o *OpenAITTS) Synthesize(ctx context.Context, text, voice string) (*model.SpeechResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty transcript", domain.ErrValidation)
	}
	if len(text) > model.SpeechCharacterLimit {
		return nil, fmt.Errorf("%w: %d characters, limit %d", domain.ErrInputTooLarge, len(text), model.SpeechCharacterLimit)
	}
	if !model.VoiceSupported(voice) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidVoice, voice)
	}

	start := time.Now()
	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	metrics.ObserveStage("speech", time.Since(start).Seconds(), err == nil)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Body.Close()

	f, err := os.CreateTemp(o.workDir, "narration-*.mp3")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("writing narration audio: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}

	return &model.SpeechResult{
		AudioPath:        f.Name(),
		DurationEstimate: estimateDuration(text),
	}, nil
}

// estimateDuration is a pre-flight figure from word count; the rendered
// audio is authoritative.
func estimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	return float64(words) / wordsPerMinute * 60
}

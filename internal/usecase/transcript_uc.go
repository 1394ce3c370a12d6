// File: internal/usecase/transcript_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/adapter"
	"shorts-factory/internal/infra/logging"
)

// Compile-time check
var _ TranscriptUseCase = (*transcriptUC)(nil)

// TranscriptUseCase drafts a narration transcript for a topic, sized to fit
// the speech synthesis ceiling.
type TranscriptUseCase interface {
	Generate(ctx context.Context, topic string) (string, error)
}

type transcriptUC struct {
	gen adapter.TranscriptGenerator
	log *zerolog.Logger
}

func NewTranscriptUseCase(gen adapter.TranscriptGenerator, logger *zerolog.Logger) *transcriptUC {
	return &transcriptUC{gen: gen, log: logger}
}

func (t *transcriptUC) Generate(ctx context.Context, topic string) (string, error) {
	defer logging.TraceDuration(t.log, "TranscriptUC.Generate")()

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("%w: topic is empty", domain.ErrValidation)
	}
	text, err := t.gen.Generate(ctx, topic, model.SpeechCharacterLimit)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if len(text) > model.SpeechCharacterLimit {
		// Truncate at the last sentence boundary that fits.
		cut := strings.LastIndex(text[:model.SpeechCharacterLimit], ". ")
		if cut <= 0 {
			cut = model.SpeechCharacterLimit
		} else {
			cut++
		}
		text = strings.TrimSpace(text[:cut])
	}
	return text, nil
}

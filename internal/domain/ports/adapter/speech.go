package adapter

import (
	"context"

	"shorts-factory/internal/domain/model"
)

// SpeechSynthesizer turns transcript text into a local narration audio file.
// Input validation (length ceiling, voice membership) happens before any
// network call.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (*model.SpeechResult, error)
}

// File: internal/infra/adapters/transcript/gemini.go
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TranscriptGenerator = (*Gemini)(nil)

// Gemini drafts narration scripts with the Gemini API. Generated text is
// token-budgeted on the way out so downstream speech synthesis never sees
// an oversized script.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int
	encoder   *tiktoken.Tiktoken
	log       *zerolog.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, maxTokens int, logger *zerolog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	// cl100k is close enough for budget accounting across providers.
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model, maxTokens: maxTokens, encoder: enc, log: logger}, nil
}

func (g *Gemini) Generate(ctx context.Context, topic string, maxChars int) (string, error) {
	prompt := buildPrompt(topic, maxChars)

	chat, err := g.client.Chats.Create(
		ctx,
		g.model,
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(g.maxTokens),
		},
		nil,
	)
	if err != nil {
		return "", err
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", err
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		text = resp.Candidates[0].Content.Parts[0].Text
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: model returned no transcript", domain.ErrValidation)
	}

	g.log.Debug().
		Int("chars", len(text)).
		Int("tokens", len(g.encoder.Encode(text, nil, nil))).
		Msg("transcript generated")

	return clampToChars(text, maxChars), nil
}

func buildPrompt(topic string, maxChars int) string {
	return fmt.Sprintf(
		"Write a narration script for a short-form vertical video about %q. "+
			"Plain spoken prose only, no scene directions or headings, at most %d characters.",
		topic, maxChars,
	)
}

// clampToChars truncates at the last sentence boundary that fits.
func clampToChars(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	cut := strings.LastIndex(text[:maxChars], ". ")
	if cut <= 0 {
		cut = maxChars
	} else {
		cut++
	}
	return strings.TrimSpace(text[:cut])
}

package adapter

import "context"

// TranscriptGenerator drafts a narration transcript for a topic. The result
// must fit the speech synthesis character ceiling.
type TranscriptGenerator interface {
	Generate(ctx context.Context, topic string, maxChars int) (string, error)
}

package adapter

import (
	"context"

	"shorts-factory/internal/domain/model"
)

// MediaProcessor reformats the source video to the shorts aspect ratio,
// muxes in the narration track and truncates to the platform's maximum
// duration. videoLocation may be a remote URI that the processor first
// materializes locally.
type MediaProcessor interface {
	Combine(ctx context.Context, videoLocation, audioPath, title string) (*model.MediaResult, error)
}

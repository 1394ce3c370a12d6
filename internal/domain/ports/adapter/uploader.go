package adapter

import (
	"context"

	"shorts-factory/internal/domain/model"
)

// UploadMetadata is the video listing the Upload Stage publishes.
type UploadMetadata struct {
	Title       string
	Description string
	Tags        []string
	Category    string
	Privacy     string
}

// VideoUploader pushes a finished asset to the video platform with a
// resumable, chunked transfer. ValidateMetadata is separate so the
// orchestrator can fail fast before fetching a token. Upload takes the
// bearer token explicitly: it must be obtained immediately before the
// transfer, not cached from earlier in the pipeline.
type VideoUploader interface {
	ValidateMetadata(meta UploadMetadata) error
	Upload(ctx context.Context, token, localPath string, meta UploadMetadata) (*model.UploadResult, error)
}

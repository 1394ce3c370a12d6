// File: internal/usecase/pipeline_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/adapter"
	"shorts-factory/internal/domain/ports/repository"
	"shorts-factory/internal/infra/logging"
	"shorts-factory/internal/infra/metrics"
)

// Compile-time check
var _ PipelineUseCase = (*pipelineUC)(nil)

// PipelineUseCase runs one claimed job through the three stages and writes
// every progress checkpoint to the ledger. The job must already be in the
// processing state when Run is called.
type PipelineUseCase interface {
	Run(ctx context.Context, job *model.Job) error
}

type pipelineUC struct {
	jobs     repository.JobRepository
	speech   adapter.SpeechSynthesizer
	media    adapter.MediaProcessor
	uploader adapter.VideoUploader
	blobs    adapter.BlobStore
	vault    VaultUseCase
	log      *zerolog.Logger

	defaultVoice string
	retryDelay   time.Duration
	now          func() time.Time
}

func NewPipelineUseCase(jobs repository.JobRepository, speech adapter.SpeechSynthesizer, media adapter.MediaProcessor, uploader adapter.VideoUploader, blobs adapter.BlobStore, vault VaultUseCase, defaultVoice string, retryDelay time.Duration, logger *zerolog.Logger) *pipelineUC {
	return &pipelineUC{
		jobs:         jobs,
		speech:       speech,
		media:        media,
		uploader:     uploader,
		blobs:        blobs,
		vault:        vault,
		log:          logger,
		defaultVoice: defaultVoice,
		retryDelay:   retryDelay,
		now:          time.Now,
	}
}

func (p *pipelineUC) Run(ctx context.Context, job *model.Job) error {
	ctx = logging.WithJobID(logging.WithUserID(ctx, job.UserID), job.ID)
	log := logging.With(ctx, p.log)
	defer logging.TraceDuration(log, "PipelineUC.Run")()

	var scratch []string
	defer func() { p.cleanup(log, scratch) }()

	if err := p.jobs.UpdateProgress(ctx, repository.NoTX, job.ID, model.ProgressDispatched, "Starting pipeline", nil); err != nil {
		return err
	}

	// Speech stage
	sr, err := p.synthesize(ctx, job)
	if err != nil {
		return p.fail(ctx, log, job.ID, fmt.Errorf("speech stage: %w", err))
	}
	scratch = append(scratch, sr.AudioPath)
	log.Info().Float64("duration_estimate", sr.DurationEstimate).Msg("narration synthesized")
	if err := p.jobs.UpdateProgress(ctx, repository.NoTX, job.ID, model.ProgressSpeechDone, "Narration audio ready", nil); err != nil {
		return err
	}

	// Media stage
	mr, err := p.media.Combine(ctx, job.VideoSource, sr.AudioPath, job.Title)
	if err != nil {
		return p.fail(ctx, log, job.ID, fmt.Errorf("media stage: %w", err))
	}
	scratch = append(scratch, mr.OutputPath)
	if mr.SilentAudio {
		log.Warn().Str("output", mr.OutputPath).Msg("narration track decodes as silence")
	}
	if err := p.jobs.UpdateProgress(ctx, repository.NoTX, job.ID, model.ProgressMediaDone, "Video rendered", nil); err != nil {
		return err
	}

	// Upload stage. Mock jobs stop after rendering: the artifact goes to
	// blob storage and nothing leaves the system.
	if job.Mode == model.JobModeMock {
		loc, err := p.blobs.Put(ctx, mr.OutputPath, job.ID+".mp4")
		if err != nil {
			return p.fail(ctx, log, job.ID, fmt.Errorf("storing rendered video: %w", err))
		}
		return p.jobs.UpdateCompletion(ctx, repository.NoTX, job.ID, model.JobOutput{OutputLocation: loc})
	}

	meta := buildUploadMetadata(job)
	if err := p.uploader.ValidateMetadata(meta); err != nil {
		return p.fail(ctx, log, job.ID, fmt.Errorf("upload metadata: %w", err))
	}

	// The token is fetched immediately before the transfer so its lifetime
	// covers the upload, not the render that preceded it.
	token, err := p.vault.ValidAccessToken(ctx, job.UserID, true)
	if err != nil {
		return p.fail(ctx, log, job.ID, authError(err))
	}

	ur, err := p.uploader.Upload(ctx, token, mr.OutputPath, meta)
	if err != nil {
		return p.fail(ctx, log, job.ID, authError(err))
	}
	log.Info().Str("video_id", ur.VideoID).Msg("upload complete")

	return p.jobs.UpdateCompletion(ctx, repository.NoTX, job.ID, model.JobOutput{
		OutputLocation: ur.WatchURL,
		YouTubeVideoID: ur.VideoID,
		YouTubeURL:     ur.ShortsURL,
	})
}

// synthesize retries a failed synthesis exactly once. Validation rejections
// are deterministic and skip the retry.
func (p *pipelineUC) synthesize(ctx context.Context, job *model.Job) (*model.SpeechResult, error) {
	voice := job.Voice
	if voice == "" {
		voice = p.defaultVoice
	}
	res, err := p.speech.Synthesize(ctx, job.Transcript, voice)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, domain.ErrInputTooLarge) || errors.Is(err, domain.ErrInvalidVoice) {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.retryDelay):
	}
	metrics.IncSpeechRetry()
	return p.speech.Synthesize(ctx, job.Transcript, voice)
}

// fail records the terminal failure on the ledger. The -1 progress sentinel
// carries the error text as the progress message.
func (p *pipelineUC) fail(ctx context.Context, log *zerolog.Logger, jobID string, cause error) error {
	log.Error().Err(cause).Msg("pipeline failed")
	failed := model.JobStatusFailed
	if err := p.jobs.UpdateProgress(ctx, repository.NoTX, jobID, model.ProgressFailed, cause.Error(), &failed); err != nil {
		log.Error().Err(err).Msg("recording failure on ledger")
	}
	return cause
}

func (p *pipelineUC) cleanup(log *zerolog.Logger, paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("temp file cleanup failed")
		}
	}
}

func authError(err error) error {
	if errors.Is(err, domain.ErrAuthRequired) || errors.Is(err, domain.ErrReauthRequired) {
		return fmt.Errorf("YouTube authentication required: %w", err)
	}
	return err
}

func buildUploadMetadata(job *model.Job) adapter.UploadMetadata {
	category := job.Category
	if category == "" {
		category = "entertainment"
	}
	privacy := job.Privacy
	if privacy == "" {
		privacy = "public"
	}
	return adapter.UploadMetadata{
		Title:       job.Title,
		Description: job.Description,
		Tags:        job.Tags,
		Category:    category,
		Privacy:     privacy,
	}
}

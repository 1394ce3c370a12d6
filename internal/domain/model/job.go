package model

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"shorts-factory/internal/domain"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type JobMode string

const (
	JobModeMock       JobMode = "mock"
	JobModeProduction JobMode = "production"
)

// Progress checkpoints emitted by the pipeline. Callers poll and display
// these values verbatim, so they are fixed, not a continuous percentage.
const (
	ProgressDispatched = 0
	ProgressSpeechDone = 25
	ProgressMediaDone  = 75
	ProgressDone       = 100

	// ProgressFailed is a sentinel: the progress message holds the error.
	ProgressFailed = -1
)

// Job is the durable ledger record for one short-form video request.
type Job struct {
	ID              string
	UserID          string
	Status          JobStatus
	Progress        int
	ProgressMessage string
	Mode            JobMode

	Title       string
	Description string
	Voice       string
	Tags        []string
	Category    string
	Privacy     string

	VideoSource string // blob URI or local path of the source video
	Transcript  string

	OutputLocation string
	YouTubeVideoID string
	YouTubeURL     string
	ErrorMessage   string

	ProcessingTimeSeconds int
	CreatedAt             time.Time
	UpdatedAt             time.Time
	CompletedAt           *time.Time
}

// JobSpec is what the trigger interface accepts.
type JobSpec struct {
	Title       string
	Description string
	Voice       string
	Tags        []string
	Category    string
	Privacy     string
	VideoSource string
	Transcript  string
	Mode        JobMode
}

// JobOutput carries completion data written by the orchestrator.
type JobOutput struct {
	OutputLocation string
	YouTubeVideoID string
	YouTubeURL     string
}

// JobStatusView is the polling projection of a job.
type JobStatusView struct {
	ID              string     `json:"id"`
	UserID          string     `json:"-"`
	Status          JobStatus  `json:"status"`
	Progress        int        `json:"progress"`
	ProgressMessage string     `json:"progress_message"`
	CurrentStep     string     `json:"current_step"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	OutputLocation  string     `json:"output_location,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func NewJob(userID string, spec JobSpec) (*Job, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Job{
		ID:          ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		UserID:      userID,
		Status:      JobStatusPending,
		Progress:    ProgressDispatched,
		Mode:        spec.Mode,
		Title:       strings.TrimSpace(spec.Title),
		Description: spec.Description,
		Voice:       spec.Voice,
		Tags:        spec.Tags,
		Category:    spec.Category,
		Privacy:     spec.Privacy,
		VideoSource: spec.VideoSource,
		Transcript:  spec.Transcript,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SpeechCharacterLimit is the synthesis provider's hard input ceiling.
const SpeechCharacterLimit = 4096

// Voices supported by the speech provider.
var SupportedVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

func VoiceSupported(voice string) bool {
	for _, v := range SupportedVoices {
		if v == voice {
			return true
		}
	}
	return false
}

// Validate rejects a spec before a ledger entry is created: a job that fails
// here never reaches the pipeline.
func (s JobSpec) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return domain.ErrValidation
	}
	if len(s.Title) > 100 {
		return domain.ErrValidation
	}
	if strings.TrimSpace(s.Transcript) == "" {
		return domain.ErrValidation
	}
	if len(s.Transcript) > SpeechCharacterLimit {
		return domain.ErrInputTooLarge
	}
	if s.Voice != "" && !VoiceSupported(s.Voice) {
		return domain.ErrInvalidVoice
	}
	if strings.TrimSpace(s.VideoSource) == "" {
		return domain.ErrValidation
	}
	switch s.Mode {
	case JobModeMock, JobModeProduction:
	default:
		return domain.ErrValidation
	}
	return nil
}

// CurrentStep maps a progress checkpoint to a human-readable step for the
// status endpoint.
func CurrentStep(progress int, status JobStatus) string {
	switch status {
	case JobStatusFailed:
		return "Failed"
	case JobStatusCompleted:
		return "Completed"
	case JobStatusPending:
		return "Waiting to start"
	}
	switch {
	case progress < ProgressSpeechDone:
		return "Generating narration"
	case progress < ProgressMediaDone:
		return "Rendering video"
	default:
		return "Uploading to YouTube"
	}
}

func (j *Job) StatusView() *JobStatusView {
	return &JobStatusView{
		ID:              j.ID,
		UserID:          j.UserID,
		Status:          j.Status,
		Progress:        j.Progress,
		ProgressMessage: j.ProgressMessage,
		CurrentStep:     CurrentStep(j.Progress, j.Status),
		ErrorMessage:    j.ErrorMessage,
		OutputLocation:  j.OutputLocation,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		CompletedAt:     j.CompletedAt,
	}
}

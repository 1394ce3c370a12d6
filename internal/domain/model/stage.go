package model

// Stage results are ephemeral: produced by a stage adapter, consumed
// synchronously by the orchestrator, never persisted. Failure is an error
// return, so the orchestrator's failure branch is exhaustive by construction.

// SpeechResult is the Speech Stage output.
type SpeechResult struct {
	AudioPath        string
	DurationEstimate float64 // seconds, from word count; a pre-flight figure
}

// MediaResult is the Media Stage output.
type MediaResult struct {
	OutputPath string
	Duration   float64
	// SilentAudio marks a decoded-but-silent narration track. Playback is
	// still valid downstream, so this is surfaced as a warning, not a failure.
	SilentAudio bool
}

// UploadResult is the Upload Stage output.
type UploadResult struct {
	VideoID   string
	WatchURL  string
	ShortsURL string
}

// File: internal/infra/adapters/media/ffmpeg.go
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/adapter"
	"shorts-factory/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.MediaProcessor = (*FFmpeg)(nil)

const (
	// Shorts canvas and duration ceiling.
	targetWidth  = 1080
	targetHeight = 1920
	maxSeconds   = 60

	// Mean volume at or below this threshold counts as silence.
	silenceThresholdDB = -60.0
)

// FFmpeg renders the final short: reformat the source to the vertical
// canvas, then mux the narration over it. Remote sources are materialized
// through the blob store first.
type FFmpeg struct {
	ffmpegPath    string
	ffprobePath   string
	workDir       string
	encodeTimeout time.Duration
	probeTimeout  time.Duration
	blobs         adapter.BlobStore
	log           *zerolog.Logger
}

func NewFFmpeg(ffmpegPath, ffprobePath, workDir string, encodeTimeout, probeTimeout time.Duration, blobs adapter.BlobStore, logger *zerolog.Logger) (*FFmpeg, error) {
	resolvedFFmpeg, err := exec.LookPath(ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolUnavailable, ffmpegPath)
	}
	resolvedFFprobe, err := exec.LookPath(ffprobePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrToolUnavailable, ffprobePath)
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &FFmpeg{
		ffmpegPath:    resolvedFFmpeg,
		ffprobePath:   resolvedFFprobe,
		workDir:       workDir,
		encodeTimeout: encodeTimeout,
		probeTimeout:  probeTimeout,
		blobs:         blobs,
		log:           logger,
	}, nil
}

func (f *FFmpeg) Combine(ctx context.Context, videoLocation, audioPath, title string) (*model.MediaResult, error) {
	start := time.Now()
	res, err := f.combine(ctx, videoLocation, audioPath, title)
	metrics.ObserveStage("media", time.Since(start).Seconds(), err == nil)
	if err == nil && res.SilentAudio {
		metrics.IncSilentNarration()
	}
	return res, err
}

func (f *FFmpeg) combine(ctx context.Context, videoLocation, audioPath, title string) (*model.MediaResult, error) {
	local := videoLocation
	if isRemote(videoLocation) {
		resolved, err := f.blobs.ResolveToLocal(ctx, videoLocation)
		if err != nil {
			return nil, fmt.Errorf("fetching source video: %w", err)
		}
		local = resolved
		defer os.Remove(resolved)
	}
	if _, err := os.Stat(local); err != nil {
		return nil, fmt.Errorf("source video %s: %w", local, err)
	}

	reformatted, err := f.tempFile("reformatted-*.mp4")
	if err != nil {
		return nil, err
	}
	defer os.Remove(reformatted)

	if err := f.runFFmpeg(ctx, f.encodeTimeout, buildReformatArgs(local, reformatted)); err != nil {
		return nil, fmt.Errorf("reformat: %w", err)
	}

	output, err := f.tempFile("short-*.mp4")
	if err != nil {
		return nil, err
	}
	if err := f.runFFmpeg(ctx, f.encodeTimeout, buildMuxArgs(reformatted, audioPath, output)); err != nil {
		os.Remove(output)
		return nil, fmt.Errorf("mux: %w", err)
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		os.Remove(output)
		return nil, fmt.Errorf("%w: empty output", domain.ErrEncodeFailed)
	}

	duration, err := f.probeDuration(ctx, output)
	if err != nil {
		f.log.Warn().Err(err).Str("path", output).Msg("duration probe failed")
	}

	silent, err := f.probeSilence(ctx, output)
	if err != nil {
		// The probe is advisory; a probe failure never fails the render.
		f.log.Warn().Err(err).Str("path", output).Msg("silence probe failed")
		silent = false
	}

	return &model.MediaResult{
		OutputPath:  output,
		Duration:    duration,
		SilentAudio: silent,
	}, nil
}

func (f *FFmpeg) tempFile(pattern string) (string, error) {
	tmp, err := os.CreateTemp(f.workDir, pattern)
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	tmp.Close()
	return name, nil
}

func (f *FFmpeg) runFFmpeg(ctx context.Context, timeout time.Duration, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v (%s)", domain.ErrEncodeFailed, err, lastLine(stderr.String()))
	}
	return nil
}

// buildReformatArgs fits the source onto the vertical canvas: scale to fit,
// pad to fill, strip the source audio and cap the duration.
func buildReformatArgs(input, output string) []string {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		targetWidth, targetHeight, targetWidth, targetHeight,
	)
	return []string{
		"-y",
		"-i", input,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-an",
		"-t", strconv.Itoa(maxSeconds),
		"-movflags", "+faststart",
		output,
	}
}

// buildMuxArgs lays the narration over the reformatted video. The video
// stream is already encoded, so it is copied; the output stops with the
// shorter of the two streams.
func buildMuxArgs(video, audio, output string) []string {
	return []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "128k",
		"-ar", "44100",
		"-shortest",
		output,
	}
}

func (f *FFmpeg) probeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}

// probeSilence decodes the audio track through volumedetect and reports
// whether its mean volume sits at the silence floor.
func (f *FFmpeg) probeSilence(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, f.probeTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.ffmpegPath,
		"-i", path,
		"-map", "0:a:0",
		"-af", "volumedetect",
		"-f", "null", "-",
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false, err
	}
	mean, ok := parseMeanVolume(stderr.String())
	if !ok {
		return false, fmt.Errorf("mean_volume not found in volumedetect output")
	}
	return mean <= silenceThresholdDB, nil
}

var meanVolumeRe = regexp.MustCompile(`mean_volume:\s*(-?\d+(?:\.\d+)?)\s*dB`)

func parseMeanVolume(out string) (float64, bool) {
	m := meanVolumeRe.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "s3://") ||
		strings.HasPrefix(location, "http://") ||
		strings.HasPrefix(location, "https://")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// File: internal/infra/adapters/youtube/uploader.go
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	yt "google.golang.org/api/youtube/v3"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/adapter"
	"shorts-factory/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.VideoUploader = (*Uploader)(nil)

const (
	defaultBaseURL = "https://www.googleapis.com"

	maxTitleLen       = 100
	maxDescriptionLen = 5000
	maxTagsLen        = 500

	// maxChunkAttempts bounds how many times one chunk is sent before the
	// upload fails: the first send plus two retries.
	maxChunkAttempts = 3
)

// categoryIDs maps the accepted category names to YouTube's numeric IDs.
var categoryIDs = map[string]string{
	"film":          "1",
	"autos":         "2",
	"music":         "10",
	"pets":          "15",
	"sports":        "17",
	"travel":        "19",
	"gaming":        "20",
	"people":        "22",
	"comedy":        "23",
	"entertainment": "24",
	"news":          "25",
	"howto":         "26",
	"education":     "27",
	"science":       "28",
	"nonprofits":    "29",
}

var privacyStatuses = map[string]bool{
	"public":   true,
	"unlisted": true,
	"private":  true,
}

// Uploader pushes finished videos through YouTube's resumable upload
// protocol: one session initiation, then chunked PUTs that survive transient
// server errors without restarting the transfer.
type Uploader struct {
	baseURL    string
	chunkSize  int64
	retryDelay time.Duration
	client     *http.Client
	log        *zerolog.Logger
}

func NewUploader(baseURL string, chunkSize int64, retryDelay time.Duration, logger *zerolog.Logger) *Uploader {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if chunkSize <= 0 {
		chunkSize = 8 << 20
	}
	return &Uploader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		chunkSize:  chunkSize,
		retryDelay: retryDelay,
		client:     &http.Client{Timeout: 5 * time.Minute},
		log:        logger,
	}
}

// ValidateMetadata rejects a listing before a byte is transferred.
func (u *Uploader) ValidateMetadata(meta adapter.UploadMetadata) error {
	if strings.TrimSpace(meta.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if len(meta.Title) > maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", domain.ErrValidation, maxTitleLen)
	}
	if len(meta.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", domain.ErrValidation, maxDescriptionLen)
	}
	total := 0
	for _, tag := range meta.Tags {
		total += len(tag)
	}
	if total > maxTagsLen {
		return fmt.Errorf("%w: tags exceed %d characters combined", domain.ErrValidation, maxTagsLen)
	}
	if _, ok := categoryIDs[strings.ToLower(meta.Category)]; !ok {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, meta.Category)
	}
	if !privacyStatuses[strings.ToLower(meta.Privacy)] {
		return fmt.Errorf("%w: privacy must be public, unlisted or private", domain.ErrValidation)
	}
	return nil
}

func (u *Uploader) Upload(ctx context.Context, token, localPath string, meta adapter.UploadMetadata) (*model.UploadResult, error) {
	if err := u.ValidateMetadata(meta); err != nil {
		return nil, err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("opening video file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: empty video file", domain.ErrValidation)
	}

	start := time.Now()
	session, err := u.initiateSession(ctx, token, size, meta)
	if err != nil {
		metrics.ObserveStage("upload", time.Since(start).Seconds(), false)
		return nil, err
	}

	videoID, err := u.transfer(ctx, token, session, f, size)
	metrics.ObserveStage("upload", time.Since(start).Seconds(), err == nil)
	if err != nil {
		return nil, err
	}

	return &model.UploadResult{
		VideoID:   videoID,
		WatchURL:  "https://www.youtube.com/watch?v=" + videoID,
		ShortsURL: "https://www.youtube.com/shorts/" + videoID,
	}, nil
}

// initiateSession opens a resumable session and returns its upload URL.
func (u *Uploader) initiateSession(ctx context.Context, token string, size int64, meta adapter.UploadMetadata) (string, error) {
	video := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        meta.Tags,
			CategoryId:  categoryIDs[strings.ToLower(meta.Category)],
		},
		Status: &yt.VideoStatus{
			PrivacyStatus: strings.ToLower(meta.Privacy),
		},
	}
	body, err := json.Marshal(video)
	if err != nil {
		return "", err
	}

	url := u.baseURL + "/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))
	req.Header.Set("X-Upload-Content-Type", "video/mp4")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: session rejected with %d", domain.ErrAuthRequired, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: session init %d: %s", domain.ErrUploadFailed, resp.StatusCode, apiErrorMessage(resp.Body))
	}
	session := resp.Header.Get("Location")
	if session == "" {
		return "", fmt.Errorf("%w: session URL missing", domain.ErrUploadFailed)
	}
	return session, nil
}

// transfer sends the file in chunks. A 308 acknowledges bytes and advances
// the offset; a 5xx repeats the same chunk with exponential backoff; a 401
// or 403 aborts immediately since no retry can fix a dead token mid-flight.
func (u *Uploader) transfer(ctx context.Context, token, session string, f *os.File, size int64) (string, error) {
	buf := make([]byte, u.chunkSize)
	var offset int64

	for offset < size {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return "", err
		}
		end := offset + u.chunkSize
		if end > size {
			end = size
		}
		n, err := io.ReadFull(f, buf[:end-offset])
		if err != nil && err != io.ErrUnexpectedEOF {
			return "", err
		}
		chunk := buf[:n]

		videoID, next, err := u.sendChunk(ctx, token, session, chunk, offset, size)
		if err != nil {
			return "", err
		}
		if videoID != "" {
			metrics.AddUploadBytes(int64(n))
			return videoID, nil
		}
		metrics.AddUploadBytes(next - offset)
		offset = next
	}
	return "", fmt.Errorf("%w: transfer ended without a video id", domain.ErrUploadFailed)
}

// sendChunk returns either the final video ID (on completion) or the next
// byte offset (on a 308 acknowledgment).
func (u *Uploader) sendChunk(ctx context.Context, token, session string, chunk []byte, offset, total int64) (string, int64, error) {
	contentRange := fmt.Sprintf("bytes %d-%d/%d", offset, offset+int64(len(chunk))-1, total)

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, session, bytes.NewReader(chunk))
		if err != nil {
			return "", 0, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Range", contentRange)
		req.ContentLength = int64(len(chunk))

		resp, err := u.client.Do(req)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
		}

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			var video yt.Video
			decodeErr := json.NewDecoder(resp.Body).Decode(&video)
			resp.Body.Close()
			if decodeErr != nil || video.Id == "" {
				return "", 0, fmt.Errorf("%w: malformed completion response", domain.ErrUploadFailed)
			}
			metrics.IncUploadChunk("accepted")
			return video.Id, 0, nil

		case resp.StatusCode == 308:
			next := offset + int64(len(chunk))
			if r := resp.Header.Get("Range"); r != "" {
				if parsed, ok := parseRangeEnd(r); ok {
					next = parsed + 1
				}
			}
			resp.Body.Close()
			metrics.IncUploadChunk("accepted")
			return "", next, nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			metrics.IncUploadChunk("failed")
			return "", 0, fmt.Errorf("%w: chunk rejected with %d", domain.ErrAuthRequired, resp.StatusCode)

		case resp.StatusCode >= 500:
			msg := apiErrorMessage(resp.Body)
			resp.Body.Close()
			if attempt >= maxChunkAttempts {
				metrics.IncUploadChunk("failed")
				return "", 0, fmt.Errorf("%w: chunk failed after %d attempts: %d %s", domain.ErrUploadFailed, attempt, resp.StatusCode, msg)
			}
			metrics.IncUploadChunkRetry()
			metrics.IncUploadChunk("retried")
			u.log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Str("range", contentRange).Msg("retrying upload chunk")
			select {
			case <-ctx.Done():
				return "", 0, ctx.Err()
			case <-time.After(u.retryDelay * time.Duration(1<<(attempt-1))):
			}

		default:
			msg := apiErrorMessage(resp.Body)
			resp.Body.Close()
			metrics.IncUploadChunk("failed")
			return "", 0, fmt.Errorf("%w: chunk rejected with %d: %s", domain.ErrUploadFailed, resp.StatusCode, msg)
		}
	}
}

// parseRangeEnd extracts the last acknowledged byte from "bytes=0-12345".
func parseRangeEnd(r string) (int64, bool) {
	idx := strings.LastIndex(r, "-")
	if idx < 0 {
		return 0, false
	}
	end, err := strconv.ParseInt(r[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return end, true
}

// apiErrorMessage pulls the human message out of a Google API error body.
func apiErrorMessage(body io.Reader) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload) != nil {
		return ""
	}
	return payload.Error.Message
}

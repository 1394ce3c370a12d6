// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shorts-factory/internal/domain"
	"shorts-factory/internal/domain/model"
	"shorts-factory/internal/domain/ports/repository"
)

const maxCredentialBody = 64 << 10 // OAuth client JSON files are tiny

type jobCreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Voice       string   `json:"voice"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Privacy     string   `json:"privacy"`
	VideoSource string   `json:"video_source"`
	Transcript  string   `json:"transcript"`
	Mode        string   `json:"mode"`
}

type jobResponse struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	Progress        int        `json:"progress"`
	ProgressMessage string     `json:"progress_message"`
	Mode            string     `json:"mode"`
	Title           string     `json:"title"`
	Voice           string     `json:"voice"`
	OutputLocation  string     `json:"output_location,omitempty"`
	YouTubeVideoID  string     `json:"youtube_video_id,omitempty"`
	YouTubeURL      string     `json:"youtube_url,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func toJobResponse(j *model.Job) jobResponse {
	return jobResponse{
		ID:              j.ID,
		Status:          string(j.Status),
		Progress:        j.Progress,
		ProgressMessage: j.ProgressMessage,
		Mode:            string(j.Mode),
		Title:           j.Title,
		Voice:           j.Voice,
		OutputLocation:  j.OutputLocation,
		YouTubeVideoID:  j.YouTubeVideoID,
		YouTubeURL:      j.YouTubeURL,
		ErrorMessage:    j.ErrorMessage,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		CompletedAt:     j.CompletedAt,
	}
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req jobCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := s.jobUC.Create(ctx, UserID(ctx), model.JobSpec{
		Title:       req.Title,
		Description: req.Description,
		Voice:       req.Voice,
		Tags:        req.Tags,
		Category:    req.Category,
		Privacy:     req.Privacy,
		VideoSource: req.VideoSource,
		Transcript:  req.Transcript,
		Mode:        model.JobMode(req.Mode),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	// The job is persisted and queued; callers poll the status endpoint.
	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	per, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	f := repository.JobFilter{
		Status: model.JobStatus(r.URL.Query().Get("status")),
		Page:   page,
		Per:    per,
	}

	jobs, total, err := s.jobUC.List(ctx, UserID(ctx), f)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		data = append(data, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, struct {
		Data  []jobResponse `json:"data"`
		Total int           `json:"total"`
	}{Data: data, Total: total})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := s.jobUC.Get(ctx, UserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) jobStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := s.jobUC.Status(ctx, UserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) uploadCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCredentialBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status, err := s.vaultUC.StoreClientCredentials(ctx, UserID(ctx), raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

func (s *Server) credentialStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := s.vaultUC.Status(ctx, UserID(ctx))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) authorizeURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := r.URL.Query().Get("state")
	if state == "" {
		state = uuid.NewString()
	}

	url, err := s.vaultUC.AuthorizationURL(ctx, UserID(ctx), state)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AuthorizationURL string `json:"authorization_url"`
		State            string `json:"state"`
	}{AuthorizationURL: url, State: state})
}

func (s *Server) oauthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		http.Error(w, "Authorization code is required", http.StatusBadRequest)
		return
	}

	if err := s.vaultUC.CompleteAuthorization(ctx, UserID(ctx), req.Code); err != nil {
		s.writeError(w, err)
		return
	}

	status, err := s.vaultUC.Status(ctx, UserID(ctx))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	force := r.URL.Query().Get("force") == "true"
	if err := s.vaultUC.Refresh(ctx, UserID(ctx), force); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) revokeCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.vaultUC.Revoke(ctx, UserID(ctx)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) generateTranscript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	transcript, err := s.transcriptUC.Generate(ctx, req.Topic)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Transcript string `json:"transcript"`
	}{Transcript: transcript})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInputTooLarge), errors.Is(err, domain.ErrInvalidVoice):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAuthRequired), errors.Is(err, domain.ErrReauthRequired):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrLockBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.log.Error().Err(err).Msg("request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

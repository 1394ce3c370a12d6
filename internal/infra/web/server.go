// File: internal/infra/web/server.go
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"shorts-factory/internal/usecase"
)

type Server struct {
	jobUC        usecase.JobUseCase
	vaultUC      usecase.VaultUseCase
	transcriptUC usecase.TranscriptUseCase
	jwtSecret    []byte
	log          *zerolog.Logger
}

func NewServer(
	jobUC usecase.JobUseCase,
	vaultUC usecase.VaultUseCase,
	transcriptUC usecase.TranscriptUseCase,
	jwtSecret string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		jobUC:        jobUC,
		vaultUC:      vaultUC,
		transcriptUC: transcriptUC,
		jwtSecret:    []byte(jwtSecret),
		log:          logger,
	}
}

// Router wires every route. The API is mounted behind the JWT middleware;
// health and metrics stay open for probes and scrapers.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.createJob)
			r.Get("/", s.listJobs)
			r.Get("/{id}", s.getJob)
			r.Get("/{id}/status", s.jobStatus)
		})

		r.Route("/credentials", func(r chi.Router) {
			r.Post("/", s.uploadCredentials)
			r.Delete("/", s.revokeCredentials)
			r.Get("/status", s.credentialStatus)
			r.Get("/authorize", s.authorizeURL)
			r.Post("/callback", s.oauthCallback)
			r.Post("/refresh", s.refreshToken)
		})

		r.Post("/transcripts", s.generateTranscript)
	})

	return r
}

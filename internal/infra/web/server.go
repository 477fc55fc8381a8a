package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fitness-ai-planner/internal/infra/api"
	"fitness-ai-planner/internal/usecase"
)

type Server struct {
	jobUC     usecase.JobUseCase
	jwtSecret string
	adminKey  string
	log       *zerolog.Logger
}

func NewServer(jobUC usecase.JobUseCase, jwtSecret, adminKey string, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{jobUC: jobUC, jwtSecret: jwtSecret, adminKey: adminKey, log: &l}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.userAuth)
			r.Post("/jobs", s.handleCreateJob)
			r.Get("/jobs/{id}", s.handleJobStatus)
			r.Delete("/jobs/{id}", s.handleCancelJob)
			r.Post("/jobs/{id}/save", s.handleSaveJob)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.adminAuth)
			r.Post("/admin/jobs/retry-failed", s.handleRetryFailed)
			r.Post("/admin/jobs/cleanup", s.handleCleanup)
		})
	})

	return api.Chain(r,
		api.TraceID(),
		api.Recover(s.log),
		api.RequestLog(s.log),
		api.Timeout(30*time.Second),
	)
}

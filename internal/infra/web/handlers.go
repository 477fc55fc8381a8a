package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fitness-ai-planner/internal/domain"
	"fitness-ai-planner/internal/domain/model"
)

type createJobRequest struct {
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
}

type createJobResponse struct {
	JobID string `json:"job_id"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	kind, err := model.ParseJobKind(req.Kind)
	if err != nil {
		http.Error(w, "Invalid job kind", http.StatusBadRequest)
		return
	}

	jobID, err := s.jobUC.Create(r.Context(), userID, kind, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Invalid prompt", http.StatusBadRequest)
		case errors.Is(err, domain.ErrRateLimited):
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
		default:
			http.Error(w, "Failed to create job", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, createJobResponse{JobID: jobID})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())
	jobID := chi.URLParam(r, "id")

	snap, err := s.jobUC.Status(r.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to read job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())
	jobID := chi.URLParam(r, "id")

	err := s.jobUC.Cancel(r.Context(), jobID, userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Job not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNotCancellable):
		http.Error(w, "Job is not cancellable", http.StatusBadRequest)
	default:
		http.Error(w, "Failed to cancel job", http.StatusInternalServerError)
	}
}

func (s *Server) handleSaveJob(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFromContext(r.Context())
	jobID := chi.URLParam(r, "id")

	outcome, err := s.jobUC.SaveResult(r.Context(), jobID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrJobNotCompleted),
			errors.Is(err, domain.ErrEmptyResult):
			http.Error(w, "No completed result to save", http.StatusNotFound)
		default:
			http.Error(w, "Failed to save result", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, outcome)
}

type retryFailedRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) handleRetryFailed(w http.ResponseWriter, r *http.Request) {
	var req retryFailedRequest
	// Body is optional; default limit applies.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Limit <= 0 {
		req.Limit = 10
	}

	n, err := s.jobUC.RetryFailed(r.Context(), req.Limit)
	if err != nil {
		http.Error(w, "Retry sweep failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	n, err := s.jobUC.CleanupOld(r.Context())
	if err != nil {
		http.Error(w, "Cleanup sweep failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

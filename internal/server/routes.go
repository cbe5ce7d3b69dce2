package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tsrlab/tabled/internal/store"
)

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/results/{id}", s.handleResults)
	mux.HandleFunc("DELETE /api/jobs/{id}", s.handleDelete)
}

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// UploadResponse is returned from a successful upload.
type UploadResponse struct {
	JobID string `json:"job_id"`
}

// ErrorResponse carries an error message to the client.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleHealth returns basic server health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleUpload accepts a multipart image upload, creates the job, and
// kicks off processing. The response returns as soon as the job record
// exists; clients poll /api/results/{id} for progress.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Warn("upload read failed", "error", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "failed to read upload"})
		return
	}

	rec, err := s.svc.Submit(r.Context(), header.Filename, data)
	if err != nil {
		s.logger.Error("submit failed", "filename", header.Filename, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to submit job"})
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{JobID: rec.ID})
}

// handleResults returns the current state of a job, including the
// result document once processing has finished.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	result, err := s.svc.Query(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "job not found"})
			return
		}
		s.logger.Error("query failed", "job_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to query job"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleDelete purges a job's state and artifacts.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	removed, err := s.svc.Purge(r.Context(), id)
	if err != nil {
		s.logger.Error("purge failed", "job_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to delete job"})
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "job not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

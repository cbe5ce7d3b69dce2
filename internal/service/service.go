// Package service exposes the submit/query/purge boundary, wiring the
// state store, the artifact store, and the pipeline coordinator.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tsrlab/tabled/internal/job"
	"github.com/tsrlab/tabled/internal/pipeline"
	"github.com/tsrlab/tabled/internal/store"
)

// Service coordinates job submission, lookup, and removal.
type Service struct {
	states    *store.StateStore
	artifacts store.ArtifactStore
	coord     *pipeline.Coordinator
	logger    *slog.Logger
}

// New creates a Service.
func New(states *store.StateStore, artifacts store.ArtifactStore, coord *pipeline.Coordinator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		states:    states,
		artifacts: artifacts,
		coord:     coord,
		logger:    logger.With("component", "service"),
	}
}

// QueryResult is a job record snapshot plus, once the job has reached
// the processed state, its result document.
type QueryResult struct {
	Record         *job.Record `json:"record"`
	StatusDisplay  string      `json:"status_display"`
	ResultDocument string      `json:"result_document,omitempty"`
}

// Submit stores the uploaded image, creates the job record, and
// launches the pipeline detached from the caller. It returns as soon as
// the record is durably created; processing continues in the background.
func (s *Service) Submit(ctx context.Context, filename string, data []byte) (*job.Record, error) {
	id := uuid.NewString()

	ref, err := s.artifacts.PutImage(ctx, id, filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	rec, err := s.states.Create(id, filename, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.coord.Launch(ctx, id)
	s.logger.Info("job submitted", "job_id", id, "filename", filename)
	return rec, nil
}

// Query returns the current record for a job, attaching the result
// document when the job has been processed. Returns store.ErrNotFound
// for unknown ids.
func (s *Service) Query(ctx context.Context, jobID string) (*QueryResult, error) {
	rec, err := s.states.Get(jobID)
	if err != nil {
		return nil, err
	}

	out := &QueryResult{
		Record:        rec,
		StatusDisplay: rec.Status.Display(),
	}

	if rec.Status == job.StatusProcessed {
		doc, err := s.artifacts.GetResultDocument(ctx, jobID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("failed to load result document: %w", err)
			}
			s.logger.Warn("processed job has no result document", "job_id", jobID)
		} else {
			out.ResultDocument = doc
		}
	}

	return out, nil
}

// Purge removes a job's state record and all of its artifacts. Removal
// of the two is best effort: a failure on one side does not hide a
// failure on the other, both are reported together.
func (s *Service) Purge(ctx context.Context, jobID string) (bool, error) {
	artifactErr := s.artifacts.Delete(ctx, jobID)
	removed, stateErr := s.states.Delete(jobID)

	if err := errors.Join(artifactErr, stateErr); err != nil {
		return removed, fmt.Errorf("failed to purge job %s: %w", jobID, err)
	}

	if removed {
		s.logger.Info("job purged", "job_id", jobID)
	}
	return removed, nil
}

package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsrlab/tabled/internal/home"
)

// ArtifactStore persists the large per-job payloads: the uploaded image
// and the final result document. Artifacts are keyed by job id; a later
// write for the same key overwrites.
type ArtifactStore interface {
	// PutImage stores the original upload bytes, preserving the file
	// extension from the original filename, and returns a reference
	// usable to retrieve the image later.
	PutImage(ctx context.Context, jobID, filename string, data []byte) (string, error)

	// PutResultDocument stores the final result document for a job,
	// overwriting any prior value.
	PutResultDocument(ctx context.Context, jobID, content string) error

	// GetResultDocument retrieves previously stored result content.
	// Returns ErrNotFound if the job has not produced one yet.
	GetResultDocument(ctx context.Context, jobID string) (string, error)

	// Delete removes all artifacts for a job. Missing artifacts are
	// not an error.
	Delete(ctx context.Context, jobID string) error
}

// FSArtifactStore stores artifacts in the job's storage unit on the
// local filesystem, alongside the state record.
type FSArtifactStore struct {
	home   *home.Dir
	logger *slog.Logger
}

// NewFSArtifactStore creates a filesystem-backed artifact store.
func NewFSArtifactStore(h *home.Dir, logger *slog.Logger) *FSArtifactStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSArtifactStore{
		home:   h,
		logger: logger.With("component", "artifact_store"),
	}
}

// PutImage stores the uploaded image as <id><ext> in the job directory
// and returns the path relative to the uploads root.
func (s *FSArtifactStore) PutImage(ctx context.Context, jobID, filename string, data []byte) (string, error) {
	if err := s.home.EnsureJobDir(jobID); err != nil {
		return "", fmt.Errorf("failed to create job directory: %w", err)
	}

	ext := ImageExt(filename)
	path := s.home.ImagePath(jobID, ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image for %s: %w", jobID, err)
	}

	s.logger.Info("image stored", "job_id", jobID, "bytes", len(data))
	return filepath.Join(jobID, jobID+ext), nil
}

// PutResultDocument stores the result document as <id>.xml.
func (s *FSArtifactStore) PutResultDocument(ctx context.Context, jobID, content string) error {
	if err := s.home.EnsureJobDir(jobID); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}
	if err := os.WriteFile(s.home.ResultPath(jobID), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write result document for %s: %w", jobID, err)
	}

	s.logger.Info("result document stored", "job_id", jobID, "bytes", len(content))
	return nil
}

// GetResultDocument reads the stored result document.
func (s *FSArtifactStore) GetResultDocument(ctx context.Context, jobID string) (string, error) {
	data, err := os.ReadFile(s.home.ResultPath(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: no result document for %s", ErrNotFound, jobID)
		}
		return "", fmt.Errorf("failed to read result document for %s: %w", jobID, err)
	}
	return string(data), nil
}

// Delete removes the job's artifact files. The state record is owned by
// the StateStore; deleting the whole storage unit is its job, so this
// removes only the image and result document.
func (s *FSArtifactStore) Delete(ctx context.Context, jobID string) error {
	dir := s.home.JobDir(jobID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list artifacts for %s: %w", jobID, err)
	}

	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), "_state.json") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to delete artifact %s: %w", e.Name(), err)
		}
	}
	return nil
}

// ImageExt returns the lowercased extension of the original filename,
// including the dot. Falls back to .png when the filename has none so
// the stored image always has a usable extension.
func ImageExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	return ext
}

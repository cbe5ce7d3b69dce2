// Package store persists job state records and artifacts. Each job owns
// a disjoint storage unit (one directory per job id) holding the JSON
// state record, the uploaded image, and the result document.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tsrlab/tabled/internal/home"
	"github.com/tsrlab/tabled/internal/job"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when no record exists for a job id.
	ErrNotFound = errors.New("job not found")

	// ErrAlreadyExists is returned when creating a record for an id
	// that already has one.
	ErrAlreadyExists = errors.New("job already exists")

	// ErrCorrupt is returned when a persisted record cannot be parsed
	// or fails schema validation. Readers treat it as a lookup miss:
	// errors.Is(err, ErrNotFound) holds for corrupt reads.
	ErrCorrupt = errors.New("job state corrupt")

	// ErrTerminal is returned when updating a job whose status is
	// terminal (processed or error). Terminal states have no outgoing
	// transitions.
	ErrTerminal = errors.New("job in terminal state")
)

// stateSchema validates the shape of persisted state records on read.
// Anything that decodes as JSON but violates this is reported as corrupt
// rather than handed to callers as a half-parsed record.
const stateSchema = `{
	"type": "object",
	"required": ["id", "status", "created_at"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"status": {
			"type": "string",
			"enum": [
				"input_created",
				"processing_ocr",
				"detecting_tables",
				"recognizing_structure",
				"constructing_table",
				"processed",
				"error"
			]
		},
		"original_filename": {"type": "string"},
		"input_reference": {"type": "string"},
		"created_at": {"type": "string"},
		"finished_at": {"type": ["string", "null"]},
		"error_message": {"type": "string"},
		"results": {"type": ["object", "null"]}
	}
}`

// StateStore persists one JSON state record per job id under the home
// directory. Updates are read-modify-write under a per-id lock, so a
// stray duplicate writer cannot drop a concurrently applied transition.
type StateStore struct {
	home   *home.Dir
	schema *jsonschema.Schema
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStateStore creates a state store rooted at the given home directory.
func NewStateStore(h *home.Dir, logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateStore{
		home:   h,
		schema: jsonschema.MustCompileString("state.json", stateSchema),
		logger: logger.With("component", "state_store"),
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding a single job id's record.
func (s *StateStore) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Create persists a new record with status input_created.
// Returns ErrAlreadyExists if a record for the id is already present.
func (s *StateStore) Create(id, originalFilename, inputReference string) (*job.Record, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	if _, err := os.Stat(s.home.StatePath(id)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}

	rec := job.NewRecord(id, originalFilename, inputReference)
	if err := s.persist(rec); err != nil {
		return nil, err
	}

	s.logger.Info("job created", "job_id", id, "filename", originalFilename)
	return rec, nil
}

// Get reads and deserializes the persisted record for a job id.
// Returns ErrNotFound if no record exists. A record that cannot be
// parsed or fails validation is logged and surfaced as ErrCorrupt,
// which also matches ErrNotFound so readers see a plain lookup miss.
func (s *StateStore) Get(id string) (*job.Record, error) {
	data, err := os.ReadFile(s.home.StatePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read state for %s: %w", id, err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Error("state record is not valid JSON", "job_id", id, "error", err)
		return nil, fmt.Errorf("%w: %w: %s", ErrCorrupt, ErrNotFound, id)
	}
	if err := s.schema.Validate(doc); err != nil {
		s.logger.Error("state record failed validation", "job_id", id, "error", err)
		return nil, fmt.Errorf("%w: %w: %s", ErrCorrupt, ErrNotFound, id)
	}

	var rec job.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Error("state record failed decode", "job_id", id, "error", err)
		return nil, fmt.Errorf("%w: %w: %s", ErrCorrupt, ErrNotFound, id)
	}
	return &rec, nil
}

// Update performs a read-modify-write of a job's record under the
// per-id lock: load current, apply the new status, optionally overwrite
// results wholesale, persist, return the updated record.
//
// Returns ErrNotFound if no record exists and ErrTerminal if the
// current status is processed or error. FinishedAt is set when the job
// reaches processed; ErrorMessage is captured from results["error"]
// when the job reaches error.
func (s *StateStore) Update(id string, newStatus job.Status, results map[string]any) (*job.Record, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if rec.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTerminal, id, rec.Status)
	}

	rec.Status = newStatus
	if results != nil {
		rec.Results = results
	}
	switch newStatus {
	case job.StatusProcessed:
		now := time.Now().UTC()
		rec.FinishedAt = &now
	case job.StatusError:
		if results != nil {
			if msg, ok := results["error"].(string); ok {
				rec.ErrorMessage = msg
			}
		}
	}

	if err := s.persist(rec); err != nil {
		return nil, err
	}

	s.logger.Info("job state updated", "job_id", id, "status", newStatus)
	return rec, nil
}

// Delete removes a job's record and its containing storage unit.
// Returns whether anything was removed; a missing record is not an error.
func (s *StateStore) Delete(id string) (bool, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	dir := s.home.JobDir(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("failed to delete job %s: %w", id, err)
	}

	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	s.logger.Info("job deleted", "job_id", id)
	return true, nil
}

// persist writes the record to a temp file in the job directory and
// renames it over the state path, so a crash mid-write cannot tear a
// previously successful write.
func (s *StateStore) persist(rec *job.Record) error {
	if err := s.home.EnsureJobDir(rec.ID); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s: %w", rec.ID, err)
	}

	path := s.home.StatePath(rec.ID)
	tmp, err := os.CreateTemp(s.home.JobDir(rec.ID), "state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file for %s: %w", rec.ID, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state for %s: %w", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close state file for %s: %w", rec.ID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state for %s: %w", rec.ID, err)
	}
	return nil
}

// Package pipeline drives submitted jobs through the ordered processing
// stages, persisting state at every transition and funneling stage
// failures into the job's terminal error state.
package pipeline

import (
	"context"

	"github.com/tsrlab/tabled/internal/job"
)

// Executor is one pluggable unit of work per stage. Implementations are
// external collaborators (OCR, table detection, structure recognition,
// table construction); the coordinator invokes them but does not
// interpret their payloads beyond storing them as job results.
type Executor interface {
	// Name returns the executor's identifier, used in logs.
	Name() string

	// Run performs the stage's work. It should respect context
	// cancellation; a returned error marks the job as failed.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request carries the inputs an executor needs: the job id, the
// reference to the uploaded image, and the accumulated outputs of
// prior stages.
type Request struct {
	JobID          string
	InputReference string
	Prior          map[string]any
}

// Result is a successful stage outcome. Results replaces the job's
// results payload wholesale when non-nil. Document, when non-empty, is
// the final result document to persist in the artifact store; only the
// last stage is expected to produce one.
type Result struct {
	Results  map[string]any
	Document string
}

// ExecutorSet maps each processing stage to its executor. A complete
// set covers every stage returned by job.Stages.
type ExecutorSet map[job.Status]Executor

// Complete reports whether every pipeline stage has an executor.
func (s ExecutorSet) Complete() bool {
	for _, stage := range job.Stages() {
		if _, ok := s[stage]; !ok {
			return false
		}
	}
	return true
}

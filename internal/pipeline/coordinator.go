package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/tsrlab/tabled/internal/job"
	"github.com/tsrlab/tabled/internal/store"
)

// terminalPersistAttempts bounds retries when persisting a terminal
// transition. If the error transition itself cannot be persisted the
// job's final state is unobservable to callers, so that path retries
// and then logs at error level.
const terminalPersistAttempts = 3

// Coordinator advances jobs through the pipeline stages. Each launched
// job runs in its own goroutine; jobs do not block each other, and
// within one job stage transitions are strictly ordered: the entering
// status is persisted before the stage's executor is invoked.
type Coordinator struct {
	states    *store.StateStore
	artifacts store.ArtifactStore
	executors ExecutorSet

	// stageTimeout bounds each executor invocation; zero disables it.
	stageTimeout time.Duration

	logger *slog.Logger
}

// Config configures a Coordinator.
type Config struct {
	States       *store.StateStore
	Artifacts    store.ArtifactStore
	Executors    ExecutorSet
	StageTimeout time.Duration
	Logger       *slog.Logger
}

// NewCoordinator creates a pipeline coordinator.
// Returns an error if the executor set does not cover every stage.
func NewCoordinator(cfg Config) (*Coordinator, error) {
	if !cfg.Executors.Complete() {
		return nil, fmt.Errorf("executor set does not cover all pipeline stages")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		states:       cfg.States,
		artifacts:    cfg.Artifacts,
		executors:    cfg.Executors,
		stageTimeout: cfg.StageTimeout,
		logger:       logger.With("component", "coordinator"),
	}, nil
}

// Launch starts processing a job in a detached goroutine and returns
// immediately. The spawned run owns its own error funneling; failures
// never escape to the caller.
func (c *Coordinator) Launch(ctx context.Context, jobID string) {
	go c.Run(context.WithoutCancel(ctx), jobID)
}

// Run drives one job through all stages. It never panics out: every
// failure, including a panicking executor, becomes an error transition.
func (c *Coordinator) Run(ctx context.Context, jobID string) {
	logger := c.logger.With("job_id", jobID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panic recovered", "panic", r)
			c.fail(ctx, jobID, fmt.Sprintf("internal failure: %v", r))
		}
	}()

	rec, err := c.states.Get(jobID)
	if err != nil {
		// Defensive: launched for an id that was never created, or
		// whose record is unreadable. Nothing to transition.
		logger.Warn("cannot start pipeline", "error", err)
		return
	}
	if rec.Status.Terminal() {
		logger.Warn("job already terminal, not reprocessing", "status", rec.Status)
		return
	}

	logger.Info("pipeline started", "filename", rec.OriginalFilename)

	req := Request{
		JobID:          jobID,
		InputReference: rec.InputReference,
		Prior:          rec.Results,
	}

	var document string
	var lastResults map[string]any

	for _, stage := range job.Stages() {
		// Persist the entering status before invoking the executor so
		// concurrent readers observe progress even if the stage is
		// slow or crashes.
		if _, err := c.states.Update(jobID, stage, nil); err != nil {
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrTerminal) {
				logger.Warn("job vanished or went terminal mid-pipeline", "stage", stage, "error", err)
				return
			}
			c.fail(ctx, jobID, fmt.Sprintf("failed to persist %s state: %v", stage, err))
			return
		}

		exec := c.executors[stage]
		logger.Info("stage started", "stage", stage, "executor", exec.Name())

		res, err := c.invoke(ctx, exec, req)
		if err != nil {
			logger.Warn("stage failed", "stage", stage, "error", err)
			c.fail(ctx, jobID, fmt.Sprintf("%s failed: %v", stage.Display(), err))
			return
		}

		if res != nil {
			if res.Results != nil {
				lastResults = res.Results
				req.Prior = res.Results
			}
			if res.Document != "" {
				document = res.Document
			}
		}
		logger.Info("stage completed", "stage", stage)
	}

	if document != "" {
		if err := c.artifacts.PutResultDocument(ctx, jobID, document); err != nil {
			c.fail(ctx, jobID, fmt.Sprintf("failed to store result document: %v", err))
			return
		}
	}

	if err := c.persistTerminal(ctx, jobID, job.StatusProcessed, lastResults); err != nil {
		logger.Error("failed to persist processed state", "error", err)
		return
	}
	logger.Info("pipeline completed")
}

// invoke runs one executor, applying the per-stage timeout when set.
func (c *Coordinator) invoke(ctx context.Context, exec Executor, req Request) (*Result, error) {
	if c.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.stageTimeout)
		defer cancel()
	}
	return exec.Run(ctx, req)
}

// fail records the terminal error state for a job. The error message is
// carried both in the record's error_message field and in the results
// payload. If even that persist fails after retries, the job's terminal
// state is unobservable to callers, so it is logged at error level.
func (c *Coordinator) fail(ctx context.Context, jobID, msg string) {
	err := c.persistTerminal(ctx, jobID, job.StatusError, map[string]any{"error": msg})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrTerminal) {
			c.logger.Warn("skipping error transition", "job_id", jobID, "error", err)
			return
		}
		c.logger.Error("UNRECOVERABLE: failed to record error state, job terminal state is unobservable",
			"job_id", jobID, "cause", msg, "error", err)
	}
}

// persistTerminal updates a job into a terminal state, retrying
// transient persistence failures.
func (c *Coordinator) persistTerminal(ctx context.Context, jobID string, status job.Status, results map[string]any) error {
	return retry.Do(
		func() error {
			_, err := c.states.Update(jobID, status, results)
			return err
		},
		retry.RetryIf(func(err error) bool {
			// NotFound and Terminal are permanent; retrying cannot help.
			return !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrTerminal)
		}),
		retry.Context(ctx),
		retry.Attempts(terminalPersistAttempts),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tsrlab/tabled/internal/home"
	"github.com/tsrlab/tabled/internal/job"
	"github.com/tsrlab/tabled/internal/pipeline"
	"github.com/tsrlab/tabled/internal/store"
)

// failingExecutor always reports the given reason.
type failingExecutor struct {
	name   string
	reason string
}

func (f *failingExecutor) Name() string { return f.name }

func (f *failingExecutor) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	return nil, errors.New(f.reason)
}

func newTestService(t *testing.T, execs pipeline.ExecutorSet) *Service {
	t.Helper()

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatal(err)
	}

	states := store.NewStateStore(h, nil)
	artifacts := store.NewFSArtifactStore(h, nil)

	coord, err := pipeline.NewCoordinator(pipeline.Config{
		States:    states,
		Artifacts: artifacts,
		Executors: execs,
	})
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}

	return New(states, artifacts, coord, nil)
}

// waitTerminal polls until the job reaches a terminal state.
func waitTerminal(t *testing.T, svc *Service, jobID string) *QueryResult {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		result, err := svc.Query(t.Context(), jobID)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		if result.Record.Status.Terminal() {
			return result
		}
		select {
		case <-deadline:
			t.Fatalf("job %s never reached a terminal state, last status %s", jobID, result.Record.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestService_SubmitAndProcess(t *testing.T) {
	svc := newTestService(t, pipeline.NewMockExecutors(0))

	rec, err := svc.Submit(t.Context(), "cat.png", []byte("fake-image"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Submit() returned empty job id")
	}
	if rec.Status != job.StatusInputCreated {
		t.Errorf("Status = %s, want input_created", rec.Status)
	}

	// The record is queryable immediately after Submit returns
	result, err := svc.Query(t.Context(), rec.ID)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Record.OriginalFilename != "cat.png" {
		t.Errorf("OriginalFilename = %q, want cat.png", result.Record.OriginalFilename)
	}

	final := waitTerminal(t, svc, rec.ID)
	if final.Record.Status != job.StatusProcessed {
		t.Fatalf("Status = %s, want processed (error: %s)",
			final.Record.Status, final.Record.ErrorMessage)
	}
	if final.Record.FinishedAt == nil {
		t.Error("FinishedAt should be set after processing")
	}
	if final.ResultDocument == "" {
		t.Error("result document should be retrievable and non-empty")
	}
	if !strings.Contains(final.ResultDocument, rec.ID) {
		t.Errorf("result document should reference the job id, got %q", final.ResultDocument)
	}
	if final.StatusDisplay != "Processed" {
		t.Errorf("StatusDisplay = %q", final.StatusDisplay)
	}
}

func TestService_StageFailure(t *testing.T) {
	execs := pipeline.NewMockExecutors(0)
	execs[job.StatusDetectingTables] = &failingExecutor{name: "detector", reason: "bad input"}
	svc := newTestService(t, execs)

	rec, err := svc.Submit(t.Context(), "cat.png", []byte("fake-image"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	final := waitTerminal(t, svc, rec.ID)
	if final.Record.Status != job.StatusError {
		t.Fatalf("Status = %s, want error", final.Record.Status)
	}
	if !strings.Contains(final.Record.ErrorMessage, "bad input") {
		t.Errorf("ErrorMessage = %q, want it to contain %q", final.Record.ErrorMessage, "bad input")
	}
	if final.ResultDocument != "" {
		t.Error("no result document should exist for a failed job")
	}
}

func TestService_QueryUnknown(t *testing.T) {
	svc := newTestService(t, pipeline.NewMockExecutors(0))

	_, err := svc.Query(t.Context(), "never-submitted")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Query() error = %v, want ErrNotFound", err)
	}
}

func TestService_Purge(t *testing.T) {
	svc := newTestService(t, pipeline.NewMockExecutors(0))

	rec, err := svc.Submit(t.Context(), "cat.png", []byte("fake-image"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitTerminal(t, svc, rec.ID)

	removed, err := svc.Purge(t.Context(), rec.ID)
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if !removed {
		t.Error("Purge() = false, want true")
	}

	if _, err := svc.Query(t.Context(), rec.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Query() after purge error = %v, want ErrNotFound", err)
	}

	removed, err = svc.Purge(t.Context(), rec.ID)
	if err != nil {
		t.Fatalf("second Purge() error = %v", err)
	}
	if removed {
		t.Error("second Purge() = true, want false")
	}
}

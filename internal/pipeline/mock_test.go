package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tsrlab/tabled/internal/job"
)

func TestNewMockExecutors_Complete(t *testing.T) {
	execs := NewMockExecutors(0)
	if !execs.Complete() {
		t.Error("mock executor set should cover every stage")
	}
}

func TestMockExecutor_FinalStageDocument(t *testing.T) {
	execs := NewMockExecutors(0)

	res, err := execs[job.StatusConstructingTable].Run(t.Context(), Request{JobID: "j1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(res.Document, "<ProcessedImage>j1</ProcessedImage>") {
		t.Errorf("document = %q, want it to reference the job id", res.Document)
	}

	// Intermediate stages produce no document
	res, err = execs[job.StatusProcessingOCR].Run(t.Context(), Request{JobID: "j1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Document != "" {
		t.Errorf("intermediate stage produced a document: %q", res.Document)
	}
}

func TestMockExecutor_RespectsCancellation(t *testing.T) {
	execs := NewMockExecutors(10 * time.Second)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := execs[job.StatusProcessingOCR].Run(ctx, Request{JobID: "j1"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

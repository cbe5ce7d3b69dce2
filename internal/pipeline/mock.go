package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tsrlab/tabled/internal/job"
)

// MockExecutor simulates a stage by sleeping for a configured delay and
// returning a canned result. It stands in for the real recognition
// engines, which are external collaborators.
type MockExecutor struct {
	name    string
	delay   time.Duration
	results map[string]any
	// buildDocument, when set, produces the final result document.
	buildDocument func(jobID string) string
}

// Name returns the executor's identifier.
func (m *MockExecutor) Name() string { return m.name }

// Run sleeps for the configured delay, respecting cancellation, then
// returns the canned result.
func (m *MockExecutor) Run(ctx context.Context, req Request) (*Result, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	res := &Result{Results: m.results}
	if m.buildDocument != nil {
		res.Document = m.buildDocument(req.JobID)
	}
	return res, nil
}

// mockResultDocument is the canned structure-recognition export.
func mockResultDocument(jobID string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<TSRResult>
    <ProcessedImage>%s</ProcessedImage>
    <TableCount>2</TableCount>
    <Tables>
        <Table id="1">
            <Rows>5</Rows>
            <Columns>3</Columns>
        </Table>
        <Table id="2">
            <Rows>7</Rows>
            <Columns>2</Columns>
        </Table>
    </Tables>
</TSRResult>
`, jobID)
}

// NewMockExecutors returns a complete executor set of simulated stages.
// stageDelay applies to every stage; use zero for instant completion.
func NewMockExecutors(stageDelay time.Duration) ExecutorSet {
	return ExecutorSet{
		job.StatusProcessingOCR: &MockExecutor{
			name:    "mock-ocr",
			delay:   stageDelay,
			results: map[string]any{"lines_recognized": 42},
		},
		job.StatusDetectingTables: &MockExecutor{
			name:    "mock-table-detector",
			delay:   stageDelay,
			results: map[string]any{"tables_detected": 2},
		},
		job.StatusRecognizingStructure: &MockExecutor{
			name:    "mock-structure-recognizer",
			delay:   stageDelay,
			results: map[string]any{"tables_detected": 2, "cells_recognized": 29},
		},
		job.StatusConstructingTable: &MockExecutor{
			name:          "mock-table-constructor",
			delay:         stageDelay,
			results:       map[string]any{"tables_detected": 2, "cells_recognized": 29, "tables_constructed": 2},
			buildDocument: mockResultDocument,
		},
	}
}

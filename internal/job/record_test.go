package job

import (
	"testing"
	"time"
)

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusInputCreated, false},
		{StatusProcessingOCR, false},
		{StatusDetectingTables, false},
		{StatusRecognizingStructure, false},
		{StatusConstructingTable, false},
		{StatusProcessed, true},
		{StatusError, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatus_Display(t *testing.T) {
	if got := StatusProcessingOCR.Display(); got != "Processing OCR (Optical Character Recognition)" {
		t.Errorf("Display() = %q", got)
	}
	if got := StatusInputCreated.Display(); got != "Input created" {
		t.Errorf("Display() = %q", got)
	}

	// Unknown values fall back to the raw token
	if got := Status("bogus").Display(); got != "bogus" {
		t.Errorf("Display() = %q, want raw token", got)
	}
}

func TestStatus_Before(t *testing.T) {
	if !StatusInputCreated.Before(StatusProcessingOCR) {
		t.Error("input_created should precede processing_ocr")
	}
	if !StatusDetectingTables.Before(StatusProcessed) {
		t.Error("detecting_tables should precede processed")
	}
	if StatusProcessed.Before(StatusInputCreated) {
		t.Error("processed should not precede input_created")
	}

	// ERROR has no position in the ordered progression
	if StatusError.Before(StatusProcessed) || StatusProcessed.Before(StatusError) {
		t.Error("error status should not be ordered")
	}
}

func TestStages_Order(t *testing.T) {
	stages := Stages()
	want := []Status{
		StatusProcessingOCR,
		StatusDetectingTables,
		StatusRecognizingStructure,
		StatusConstructingTable,
	}

	if len(stages) != len(want) {
		t.Fatalf("got %d stages, want %d", len(stages), len(want))
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, stages[i], want[i])
		}
	}
	for i := 1; i < len(stages); i++ {
		if !stages[i-1].Before(stages[i]) {
			t.Errorf("stage %s should precede %s", stages[i-1], stages[i])
		}
	}
}

func TestNewRecord(t *testing.T) {
	before := time.Now().UTC()
	rec := NewRecord("j1", "cat.png", "j1/j1.png")
	after := time.Now().UTC()

	if rec.ID != "j1" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Status != StatusInputCreated {
		t.Errorf("Status = %s, want %s", rec.Status, StatusInputCreated)
	}
	if rec.OriginalFilename != "cat.png" {
		t.Errorf("OriginalFilename = %q", rec.OriginalFilename)
	}
	if rec.InputReference != "j1/j1.png" {
		t.Errorf("InputReference = %q", rec.InputReference)
	}
	if rec.CreatedAt.Before(before) || rec.CreatedAt.After(after) {
		t.Errorf("CreatedAt = %v outside [%v, %v]", rec.CreatedAt, before, after)
	}
	if rec.FinishedAt != nil {
		t.Error("FinishedAt should be nil at creation")
	}
	if rec.ErrorMessage != "" {
		t.Error("ErrorMessage should be empty at creation")
	}
}

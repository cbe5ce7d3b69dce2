package job

import (
	"time"
)

// Status represents the processing state of a job.
// The string values are stable storage tokens; use Display for
// human-readable text at the boundary.
type Status string

const (
	StatusInputCreated         Status = "input_created"
	StatusProcessingOCR        Status = "processing_ocr"
	StatusDetectingTables      Status = "detecting_tables"
	StatusRecognizingStructure Status = "recognizing_structure"
	StatusConstructingTable    Status = "constructing_table"
	StatusProcessed            Status = "processed"
	StatusError                Status = "error"
)

// Stages returns the non-terminal processing stages in pipeline order.
// StatusInputCreated is the creation state, not a stage; StatusProcessed
// and StatusError are terminal.
func Stages() []Status {
	return []Status{
		StatusProcessingOCR,
		StatusDetectingTables,
		StatusRecognizingStructure,
		StatusConstructingTable,
	}
}

// displayNames maps storage tokens to boundary-facing text.
var displayNames = map[Status]string{
	StatusInputCreated:         "Input created",
	StatusProcessingOCR:        "Processing OCR (Optical Character Recognition)",
	StatusDetectingTables:      "Detecting tables",
	StatusRecognizingStructure: "Recognizing table structure",
	StatusConstructingTable:    "Constructing table",
	StatusProcessed:            "Processed",
	StatusError:                "Error",
}

// Display returns the human-readable name for the status.
func (s Status) Display() string {
	if name, ok := displayNames[s]; ok {
		return name
	}
	return string(s)
}

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return s == StatusProcessed || s == StatusError
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	_, ok := displayNames[s]
	return ok
}

// rank gives the position of each status in the non-error progression.
// Used only to compare observed orderings; ERROR is reachable from any
// non-terminal state and has no rank.
var rank = map[Status]int{
	StatusInputCreated:         0,
	StatusProcessingOCR:        1,
	StatusDetectingTables:      2,
	StatusRecognizingStructure: 3,
	StatusConstructingTable:    4,
	StatusProcessed:            5,
}

// Before reports whether s precedes other in the non-error progression.
// Returns false if either status has no defined order (ERROR).
func (s Status) Before(other Status) bool {
	a, ok1 := rank[s]
	b, ok2 := rank[other]
	return ok1 && ok2 && a < b
}

// Record is the persisted state of a single submitted job.
// ID is assigned at creation and never changes; all mutation goes
// through the state store's read-modify-write Update.
type Record struct {
	ID               string         `json:"id"`
	Status           Status         `json:"status"`
	OriginalFilename string         `json:"original_filename"`
	InputReference   string         `json:"input_reference"`
	CreatedAt        time.Time      `json:"created_at"`
	FinishedAt       *time.Time     `json:"finished_at,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	Results          map[string]any `json:"results,omitempty"`
}

// NewRecord creates a record for a freshly submitted job.
func NewRecord(id, originalFilename, inputReference string) *Record {
	return &Record{
		ID:               id,
		Status:           StatusInputCreated,
		OriginalFilename: originalFilename,
		InputReference:   inputReference,
		CreatedAt:        time.Now().UTC(),
	}
}

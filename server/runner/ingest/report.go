package ingest

import (
	"path/filepath"
)

// Status is the outcome of one document.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Skip reasons.
const (
	ReasonNoContent       = "no content"
	ReasonAlreadyIngested = "already ingested"
)

// DocumentOutcome describes what happened to one document.
type DocumentOutcome struct {
	SourceID string `json:"source_id"`
	Status   Status `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Records  int    `json:"records"`
	Err      error  `json:"-"`
}

// Report summarizes an ingestion run.
type Report struct {
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
	Documents []DocumentOutcome `json:"documents"`
	Errors    []error           `json:"-"`
}

func (r *Report) add(outcome DocumentOutcome) {
	r.Documents = append(r.Documents, outcome)
	switch outcome.Status {
	case StatusProcessed:
		r.Processed++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
		r.Errors = append(r.Errors, outcome.Err)
	}
}

func skipped(sourceID, reason string) DocumentOutcome {
	return DocumentOutcome{SourceID: sourceID, Status: StatusSkipped, Reason: reason}
}

func failed(sourceID, reason string, err error) DocumentOutcome {
	return DocumentOutcome{SourceID: sourceID, Status: StatusFailed, Reason: reason + ": " + err.Error(), Err: err}
}

func sourceIDOf(path string) string {
	return filepath.Base(path)
}

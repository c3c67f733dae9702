package tailor

import (
	"errors"
	"fmt"
)

var (
	ErrMissingJobAd    = errors.New("job ad is required")
	ErrMissingAPIKey   = errors.New("generator API key not configured")
	ErrOutputsNotFound = errors.New("failed to find generated PDFs")
)

// Kind identifies one of the two tailored documents.
type Kind string

const (
	KindCV          Kind = "cv"
	KindCoverLetter Kind = "cover_letter"
)

// Label is the human name used in error messages.
func (k Kind) Label() string {
	if k == KindCoverLetter {
		return "cover letter"
	}
	return "CV"
}

type Request struct {
	JobAd  string
	APIKey string
	// Partial keeps going after one document fails, so the other result is
	// still available.
	Partial bool
}

// Document is a rendered PDF.
type Document struct {
	Kind     Kind
	Filename string
	PDF      []byte
	Pages    int
	YAML     string
}

type DocumentResult struct {
	Kind     Kind
	Document *Document
	Err      error
}

type Result struct {
	RunID       string
	CV          DocumentResult
	CoverLetter DocumentResult
}

// Err is the first document error, CV first.
func (r *Result) Err() error {
	if r.CV.Err != nil {
		return r.CV.Err
	}
	return r.CoverLetter.Err
}

// DocumentError attributes a failure to a document and pipeline stage.
type DocumentError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind.Label(), e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

const (
	StageGenerate = "generation"
	StageWrite    = "write"
	StageRender   = "render"
	StageLocate   = "locate"
	StageVerify   = "verify"
	StageRead     = "read"
)

// Run statuses written to the journal and status events.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

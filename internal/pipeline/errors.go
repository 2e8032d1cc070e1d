package pipeline

import "fmt"

// Stage names carried by StageError.
const (
	StageExtract = "extract"
	StageParse   = "parse"
)

// StageError identifies which per-document stage failed and for which
// document, so callers can act on the failure without parsing messages.
type StageError struct {
	Stage    string
	Document int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: document %d: %v", e.Stage, e.Document, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

package flow

import "fmt"

// DiagnosticKind classifies a soft violation recorded during ingestion or
// layout. None of these abort a run; a renderable best-effort layout is
// always preferred to no layout.
type DiagnosticKind string

const (
	// DiagDanglingEdge marks an edge that referenced a missing node and was
	// skipped.
	DiagDanglingEdge DiagnosticKind = "dangling_edge"

	// DiagInvalidHandle marks a handle value on input that was not one of
	// top/right/bottom/left and was cleared.
	DiagInvalidHandle DiagnosticKind = "invalid_handle"

	// DiagHandleExhausted marks a node where all four anchors were taken and
	// the strict in/out separation invariant had to be relaxed.
	DiagHandleExhausted DiagnosticKind = "handle_exhausted"

	// DiagResidualCollisions marks a run that hit the collision iteration
	// cap with collisions remaining.
	DiagResidualCollisions DiagnosticKind = "residual_collisions"

	// DiagUnknownKind marks a node whose kind was not in the closed set and
	// was coerced to process.
	DiagUnknownKind DiagnosticKind = "unknown_kind"
)

// Diagnostic records a single soft violation with the element it concerns.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" bson:"kind"`
	Subject string         `json:"subject,omitempty" bson:"subject,omitempty"` // node or edge ID
	Detail  string         `json:"detail,omitempty" bson:"detail,omitempty"`
}

// String formats the diagnostic for logs.
func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Detail)
	}
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Subject, d.Detail)
}

// Diagnostics accumulates soft violations across a run.
type Diagnostics []Diagnostic

// Add appends a diagnostic.
func (ds *Diagnostics) Add(kind DiagnosticKind, subject, format string, args ...any) {
	*ds = append(*ds, Diagnostic{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)})
}

// Count returns the number of diagnostics with the given kind.
func (ds Diagnostics) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Has reports whether any diagnostic with the given kind was recorded.
func (ds Diagnostics) Has(kind DiagnosticKind) bool { return ds.Count(kind) > 0 }

package smaccv

import (
	"errors"
	"fmt"
)

//////
// Error taxonomy.
//////

// ErrBudgetExhausted signals that the wall-clock budget elapsed between
// trials. It is an expected termination, not a failure: the search stops
// gracefully and keeps whatever incumbent it has.
var ErrBudgetExhausted = errors.New("optimization wall-clock budget exhausted")

// SchemaError reports that an operator's hyperparameter schema is malformed
// or cannot be expressed as a configuration space. It is fatal and surfaces
// from New, before any search starts.
type SchemaError struct {
	Operator string
	Err      error
}

// Error implements error.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema of operator %q cannot be translated: %v", e.Operator, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *SchemaError) Unwrap() error { return e.Err }

// TrialError reports that evaluating one sampled configuration failed. The
// Pipeline field carries a JSON description of the operator and
// configuration for diagnostics.
type TrialError struct {
	Pipeline string
	Err      error
}

// Error implements error.
func (e *TrialError) Error() string {
	return fmt.Sprintf("trial failed for pipeline %s: %v", e.Pipeline, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *TrialError) Unwrap() error { return e.Err }

// SearchError is the catch-all for unrecoverable, non-budget failures of the
// search loop. The search aborts and the best estimator stays absent; the
// run history remains available for diagnostics.
type SearchError struct {
	Err error
}

// Error implements error.
func (e *SearchError) Error() string {
	return fmt.Sprintf("optimization search failed: %v", e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *SearchError) Unwrap() error { return e.Err }

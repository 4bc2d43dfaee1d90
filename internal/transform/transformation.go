package transform

import (
	"context"
	"fmt"
)

const (
	nonReversibleMessageTemplateConstant = "transformation \"%s\" is not reversible"
)

// Transformation is one unit of work over a checked-out tree. Implementations
// are immutable after construction and may be reused across pipeline runs;
// all per-run state lives in the Work context.
type Transformation interface {
	// Transform applies the transformation to the work context. Precondition
	// failures (for example a referenced path that does not exist) surface as
	// errors and abort the surrounding pipeline run.
	Transform(executionContext context.Context, work *Work) error
	// Reverse produces a transformation that undoes this one, or a
	// NonReversibleError carrying the Describe text when no reverse exists.
	Reverse() (Transformation, error)
	// Describe returns a short human-readable label for progress reporting.
	// It is never empty.
	Describe() string
}

// NonReversibleError reports an attempted reverse of a transformation that
// defines none.
type NonReversibleError struct {
	Description string
}

// Error implements the error interface.
func (reversalError NonReversibleError) Error() string {
	return fmt.Sprintf(nonReversibleMessageTemplateConstant, reversalError.Description)
}

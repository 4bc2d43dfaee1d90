package workflow

import "fmt"

const (
	iterativeFailureTemplateConstant  = "change %s failed after %d changes migrated: %v"
	noBaselineMessageTemplateConstant = "cannot find a baseline for %s in the examined history; supply an explicit baseline to force a merge point"
)

// Outcome distinguishes the terminal states of a run. A no-op is a
// first-class result, not an error.
type Outcome int

const (
	// OutcomeNoOp reports that nothing needed migrating.
	OutcomeNoOp Outcome = iota
	// OutcomeWritten reports at least one destination write.
	OutcomeWritten
)

// Result captures the observable outcome of one orchestrator run.
type Result struct {
	Outcome              Outcome
	InvocationIdentifier string
	WrittenReferences    []string
	MigratedChangeCount  int
	NewLastMigrated      string
}

// IterativeFailureError reports a mid-range failure in iterative mode along
// with how many changes migrated successfully before it.
type IterativeFailureError struct {
	FailedRevision string
	MigratedCount  int
	Cause          error
}

// Error describes the failure.
func (iterativeError IterativeFailureError) Error() string {
	return fmt.Sprintf(iterativeFailureTemplateConstant, iterativeError.FailedRevision, iterativeError.MigratedCount, iterativeError.Cause)
}

// Unwrap exposes the underlying cause.
func (iterativeError IterativeFailureError) Unwrap() error {
	return iterativeError.Cause
}

// NoBaselineError reports that change-request mode could not establish a
// merge point.
type NoBaselineError struct {
	MigrationIdentifier string
}

// Error describes the missing baseline.
func (baselineError NoBaselineError) Error() string {
	return fmt.Sprintf(noBaselineMessageTemplateConstant, baselineError.MigrationIdentifier)
}

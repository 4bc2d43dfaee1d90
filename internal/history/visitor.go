package history

import "context"

// VisitResult is the signal a visitor returns for each visited change.
type VisitResult int

const (
	// VisitContinue keeps the walk going.
	VisitContinue VisitResult = iota
	// VisitTerminate stops the walk immediately. The change that produced the
	// signal counts as consumed.
	VisitTerminate
)

// ChangesVisitor receives changes one at a time, most recent first.
type ChangesVisitor interface {
	Visit(change Change) VisitResult
}

// ChangesVisitorFunc adapts a function into a ChangesVisitor.
type ChangesVisitorFunc func(change Change) VisitResult

// Visit implements ChangesVisitor.
func (visitorFunc ChangesVisitorFunc) Visit(change Change) VisitResult {
	return visitorFunc(change)
}

// ChangeVisitable walks history newest-to-oldest from a starting revision,
// feeding each change to the visitor until the visitor terminates the walk or
// history is exhausted. Implementations must stop pulling changes the moment
// the visitor returns VisitTerminate. A traversal instance must not be shared
// by concurrent visitors.
type ChangeVisitable interface {
	VisitChanges(executionContext context.Context, startRevision Revision, visitor ChangesVisitor) error
}

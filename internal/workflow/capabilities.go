package workflow

import (
	"context"

	"github.com/temirov/reposync/internal/authoring"
	"github.com/temirov/reposync/internal/history"
)

// Origin is the abstract source repository capability.
type Origin interface {
	history.ChangeVisitable

	// CurrentRevision resolves the configured origin reference to a revision.
	CurrentRevision(executionContext context.Context) (history.Revision, error)
	// ChangesBetween returns the changes in the interval (from, to], most
	// recent first. A nil from means no previous marker is known; the origin
	// then returns history reachable from to, and the orchestrator bounds how
	// much of it is imported.
	ChangesBetween(executionContext context.Context, fromRevision history.Revision, toRevision history.Revision) ([]history.Change, error)
	// Checkout materializes the tree at the revision into the directory.
	Checkout(executionContext context.Context, revision history.Revision, targetDirectory string) error
}

// WriteRequest carries one transformed tree plus its metadata to the
// destination.
type WriteRequest struct {
	ContentDirectory  string
	Author            authoring.Author
	Message           string
	Labels            []history.Label
	BaselineReference string
}

// Destination is the abstract target repository capability. The destination
// owns last-migrated persistence: Write must record enough state for the next
// LastMigratedRevision call to observe the migrated marker.
type Destination interface {
	// LastMigratedRevision reports the origin revision most recently written
	// for the migration identifier, or an empty string when none exists.
	LastMigratedRevision(executionContext context.Context, migrationIdentifier string) (string, error)
	// Write persists the transformed content and returns a destination
	// reference for reporting.
	Write(executionContext context.Context, request WriteRequest) (string, error)
}

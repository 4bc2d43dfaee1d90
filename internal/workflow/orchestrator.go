package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/reposync/internal/authoring"
	"github.com/temirov/reposync/internal/history"
	"github.com/temirov/reposync/internal/transform"
)

const (
	originNotConfiguredMessageConstant      = "workflow origin is not configured"
	destinationNotConfiguredMessageConstant = "workflow destination is not configured"

	scratchDirectoryPatternConstant = "reposync-checkout-*"

	headResolutionErrorTemplateConstant    = "unable to resolve origin head: %w"
	markerLookupErrorTemplateConstant      = "unable to look up last migrated revision: %w"
	rangeResolutionErrorTemplateConstant   = "unable to resolve pending change range: %w"
	scratchCreationErrorTemplateConstant   = "unable to create checkout directory: %w"
	checkoutErrorTemplateConstant          = "unable to check out revision %s: %w"
	pipelineErrorTemplateConstant          = "pipeline failed on revision %s: %w"
	destinationWriteErrorTemplateConstant  = "unable to write revision %s to the destination: %w"
	baselineTraversalErrorTemplateConstant = "unable to traverse history for a baseline: %w"
	squashedRangeSummaryTemplateConstant   = "Squashed %d origin changes:"
	squashedRangeEntryTemplateConstant     = "  - %s %s"
	migrationIdentifierLogFieldConstant    = "migration_identifier"
	invocationIdentifierLogFieldConstant   = "invocation_identifier"
	modeLogFieldConstant                   = "mode"
	headRevisionLogFieldConstant           = "head_revision"
	lastMigratedRevisionLogFieldConstant   = "last_migrated_revision"
	pendingChangeCountLogFieldConstant     = "pending_change_count"
	writtenReferenceLogFieldConstant       = "written_reference"
	baselineReferenceLogFieldConstant      = "baseline_reference"
	runStartedLogMessageConstant           = "migration run started"
	runNoOpLogMessageConstant              = "origin head already migrated, nothing to do"
	emptyRangeLogMessageConstant           = "pending change range is empty, nothing to do"
	changeWrittenLogMessageConstant        = "destination change written"
	baselineResolvedLogMessageConstant     = "baseline resolved"
)

// ErrOriginNotConfigured reports a missing origin dependency.
var ErrOriginNotConfigured = errors.New(originNotConfiguredMessageConstant)

// ErrDestinationNotConfigured reports a missing destination dependency.
var ErrDestinationNotConfigured = errors.New(destinationNotConfiguredMessageConstant)

// Dependencies carries the collaborators an orchestrator needs.
type Dependencies struct {
	Logger      *zap.Logger
	Origin      Origin
	Destination Destination
	Reporter    transform.ProgressReporter
}

// Orchestrator drives one migration through the
// fetch, resolve-range, transform, write state sequence. One orchestrator
// instance processes one run at a time; independent migrations get
// independent instances.
type Orchestrator struct {
	options     Options
	logger      *zap.Logger
	origin      Origin
	destination Destination
	reporter    transform.ProgressReporter
}

// NewOrchestrator validates the options and dependencies and constructs an
// orchestrator.
func NewOrchestrator(options Options, dependencies Dependencies) (*Orchestrator, error) {
	if validationError := options.validate(); validationError != nil {
		return nil, validationError
	}
	if dependencies.Origin == nil {
		return nil, ErrOriginNotConfigured
	}
	if dependencies.Destination == nil {
		return nil, ErrDestinationNotConfigured
	}

	runLogger := dependencies.Logger
	if runLogger == nil {
		runLogger = zap.NewNop()
	}
	progressReporter := dependencies.Reporter
	if progressReporter == nil {
		progressReporter = transform.NoopProgressReporter()
	}

	return &Orchestrator{
		options:     options,
		logger:      runLogger,
		origin:      dependencies.Origin,
		destination: dependencies.Destination,
		reporter:    progressReporter,
	}, nil
}

// Run executes one migration pass and reports its outcome. An unchanged
// origin head against an unchanged last-migrated marker yields a no-op
// result without touching the destination.
func (orchestrator *Orchestrator) Run(executionContext context.Context) (Result, error) {
	invocationIdentifier := uuid.NewString()

	headRevision, headError := orchestrator.origin.CurrentRevision(executionContext)
	if headError != nil {
		return Result{}, fmt.Errorf(headResolutionErrorTemplateConstant, headError)
	}

	lastMigrated, markerError := orchestrator.destination.LastMigratedRevision(executionContext, orchestrator.options.MigrationIdentifier)
	if markerError != nil {
		return Result{}, fmt.Errorf(markerLookupErrorTemplateConstant, markerError)
	}

	orchestrator.logger.Info(runStartedLogMessageConstant,
		zap.String(migrationIdentifierLogFieldConstant, orchestrator.options.MigrationIdentifier),
		zap.String(invocationIdentifierLogFieldConstant, invocationIdentifier),
		zap.String(modeLogFieldConstant, string(orchestrator.options.Mode)),
		zap.String(headRevisionLogFieldConstant, headRevision.AsString()),
		zap.String(lastMigratedRevisionLogFieldConstant, lastMigrated),
	)

	if lastMigrated == headRevision.AsString() {
		orchestrator.logger.Info(runNoOpLogMessageConstant,
			zap.String(migrationIdentifierLogFieldConstant, orchestrator.options.MigrationIdentifier),
			zap.String(headRevisionLogFieldConstant, headRevision.AsString()),
		)
		return Result{Outcome: OutcomeNoOp, InvocationIdentifier: invocationIdentifier, NewLastMigrated: lastMigrated}, nil
	}

	if contextError := executionContext.Err(); contextError != nil {
		return Result{}, contextError
	}

	if orchestrator.options.Mode == ModeChangeRequest {
		return orchestrator.runChangeRequest(executionContext, invocationIdentifier, headRevision)
	}

	pendingChanges, rangeError := orchestrator.resolvePendingRange(executionContext, lastMigrated, headRevision)
	if rangeError != nil {
		return Result{}, fmt.Errorf(rangeResolutionErrorTemplateConstant, rangeError)
	}
	if len(pendingChanges) == 0 {
		orchestrator.logger.Info(emptyRangeLogMessageConstant,
			zap.String(migrationIdentifierLogFieldConstant, orchestrator.options.MigrationIdentifier),
		)
		return Result{Outcome: OutcomeNoOp, InvocationIdentifier: invocationIdentifier, NewLastMigrated: lastMigrated}, nil
	}

	if contextError := executionContext.Err(); contextError != nil {
		return Result{}, contextError
	}

	switch orchestrator.options.Mode {
	case ModeIterative:
		return orchestrator.runIterative(executionContext, invocationIdentifier, pendingChanges)
	default:
		return orchestrator.runSquash(executionContext, invocationIdentifier, pendingChanges)
	}
}

// resolvePendingRange returns the pending changes most recent first. A first
// run, with no last-migrated marker, truncates the range to the configured
// initial import depth.
func (orchestrator *Orchestrator) resolvePendingRange(executionContext context.Context, lastMigrated string, headRevision history.Revision) ([]history.Change, error) {
	var fromRevision history.Revision
	if len(lastMigrated) > 0 {
		fromRevision = history.StringRevision(lastMigrated)
	}

	pendingChanges, rangeError := orchestrator.origin.ChangesBetween(executionContext, fromRevision, headRevision)
	if rangeError != nil {
		return nil, rangeError
	}

	if fromRevision == nil && len(pendingChanges) > orchestrator.options.initialImportDepth() {
		pendingChanges = pendingChanges[:orchestrator.options.initialImportDepth()]
	}
	return pendingChanges, nil
}

// runSquash collapses the whole pending range into one destination change
// attributed to the default author.
func (orchestrator *Orchestrator) runSquash(executionContext context.Context, invocationIdentifier string, pendingChanges []history.Change) (Result, error) {
	headChange := pendingChanges[0]

	writtenReference, writeError := orchestrator.migrateOne(
		executionContext,
		headChange.Revision(),
		migrationInput{
			author:  orchestrator.options.Authoring.DefaultAuthor(),
			message: squashedMessage(pendingChanges),
		},
	)
	if writeError != nil {
		return Result{}, writeError
	}

	orchestrator.logger.Info(changeWrittenLogMessageConstant,
		zap.String(migrationIdentifierLogFieldConstant, orchestrator.options.MigrationIdentifier),
		zap.String(writtenReferenceLogFieldConstant, writtenReference),
		zap.Int(pendingChangeCountLogFieldConstant, len(pendingChanges)),
	)

	return Result{
		Outcome:              OutcomeWritten,
		InvocationIdentifier: invocationIdentifier,
		WrittenReferences:    []string{writtenReference},
		MigratedChangeCount:  len(pendingChanges),
		NewLastMigrated:      headChange.Revision().AsString(),
	}, nil
}

// runIterative migrates each pending change individually, oldest first. The
// first failing change stops the remaining iteration; changes migrated
// before it stay written.
func (orchestrator *Orchestrator) runIterative(executionContext context.Context, invocationIdentifier string, pendingChanges []history.Change) (Result, error) {
	writtenReferences := make([]string, 0, len(pendingChanges))
	migratedCount := 0

	for changeIndex := len(pendingChanges) - 1; changeIndex >= 0; changeIndex-- {
		if contextError := executionContext.Err(); contextError != nil {
			return Result{}, contextError
		}

		pendingChange := pendingChanges[changeIndex]
		writtenReference, writeError := orchestrator.migrateOne(
			executionContext,
			pendingChange.Revision(),
			migrationInput{
				author:  orchestrator.options.Authoring.Resolve(pendingChange.Author()),
				message: pendingChange.Message(),
			},
		)
		if writeError != nil {
			return Result{}, IterativeFailureError{
				FailedRevision: pendingChange.Revision().AsString(),
				MigratedCount:  migratedCount,
				Cause:          writeError,
			}
		}

		writtenReferences = append(writtenReferences, writtenReference)
		migratedCount++
		orchestrator.logger.Info(changeWrittenLogMessageConstant,
			zap.String(migrationIdentifierLogFieldConstant, orchestrator.options.MigrationIdentifier),
			zap.String(writtenReferenceLogFieldConstant, writtenReference),
			zap.String(headRevisionLogFieldConstant, pendingChange.Revision().AsString()),
		)
	}

	return Result{
		Outcome:              OutcomeWritten,
		InvocationIdentifier: invocationIdentifier,
		WrittenReferences:    writtenReferences,
		MigratedChangeCount:  migratedCount,
		NewLastMigrated:      pendingChanges[0].Revision().AsString(),
	}, nil
}

// runChangeRequest resolves a baseline merge point and writes one change
// representing the diff between the baseline and the origin head.
func (orchestrator *Orchestrator) runChangeRequest(executionContext context.Context, invocationIdentifier string, headRevision history.Revision) (Result, error) {
	baselineReference, baselineError := orchestrator.resolveBaseline(executionContext, headRevision)
	if baselineError != nil {
		return Result{}, baselineError
	}

	orchestrator.logger.Info(baselineResolvedLogMessageConstant,
		zap.String(migrationIdentifierLogFieldConstant, orchestrator.options.MigrationIdentifier),
		zap.String(baselineReferenceLogFieldConstant, baselineReference),
	)

	headChange, headChangeError := orchestrator.headChange(executionContext, headRevision)
	if headChangeError != nil {
		return Result{}, headChangeError
	}

	writtenReference, writeError := orchestrator.migrateOne(
		executionContext,
		headRevision,
		migrationInput{
			author:            orchestrator.options.Authoring.Resolve(headChange.Author()),
			message:           headChange.Message(),
			baselineReference: baselineReference,
		},
	)
	if writeError != nil {
		return Result{}, writeError
	}

	orchestrator.logger.Info(changeWrittenLogMessageConstant,
		zap.String(migrationIdentifierLogFieldConstant, orchestrator.options.MigrationIdentifier),
		zap.String(writtenReferenceLogFieldConstant, writtenReference),
	)

	return Result{
		Outcome:              OutcomeWritten,
		InvocationIdentifier: invocationIdentifier,
		WrittenReferences:    []string{writtenReference},
		MigratedChangeCount:  1,
		NewLastMigrated:      headRevision.AsString(),
	}, nil
}

// resolveBaseline prefers an explicitly configured baseline, then the most
// recent ancestor carrying the origin label, then the nearest ancestor
// touching files under the origin glob's roots.
func (orchestrator *Orchestrator) resolveBaseline(executionContext context.Context, headRevision history.Revision) (string, error) {
	if len(orchestrator.options.ExplicitBaseline) > 0 {
		return orchestrator.options.ExplicitBaseline, nil
	}

	labelVisitor := history.NewLabelBaselineVisitor(headRevision, orchestrator.options.OriginLabelName)
	if visitError := orchestrator.origin.VisitChanges(executionContext, headRevision, labelVisitor); visitError != nil {
		return "", fmt.Errorf(baselineTraversalErrorTemplateConstant, visitError)
	}
	if labelValue, _, labelFound := labelVisitor.Baseline(); labelFound {
		return labelValue, nil
	}

	fileVisitor := history.NewBaselineVisitor(orchestrator.options.OriginFiles, orchestrator.options.baselineSearchLimit(), true)
	if visitError := orchestrator.origin.VisitChanges(executionContext, headRevision, fileVisitor); visitError != nil {
		return "", fmt.Errorf(baselineTraversalErrorTemplateConstant, visitError)
	}
	candidateChanges := fileVisitor.Result()
	if len(candidateChanges) == 0 {
		return "", NoBaselineError{MigrationIdentifier: orchestrator.options.MigrationIdentifier}
	}
	return candidateChanges[0].Revision().AsString(), nil
}

// headChange materializes the change at the head revision via a single-step
// visit.
func (orchestrator *Orchestrator) headChange(executionContext context.Context, headRevision history.Revision) (history.Change, error) {
	var visitedChange history.Change
	visitError := orchestrator.origin.VisitChanges(executionContext, headRevision, history.ChangesVisitorFunc(func(change history.Change) history.VisitResult {
		visitedChange = change
		return history.VisitTerminate
	}))
	if visitError != nil {
		return history.Change{}, fmt.Errorf(baselineTraversalErrorTemplateConstant, visitError)
	}
	return visitedChange, nil
}

type migrationInput struct {
	author            authoring.Author
	message           string
	baselineReference string
}

// migrateOne checks out one revision into a scratch directory, runs the
// pipeline over it, and hands the result to the destination. The scratch
// directory is removed afterwards regardless of outcome.
func (orchestrator *Orchestrator) migrateOne(executionContext context.Context, revision history.Revision, input migrationInput) (string, error) {
	scratchDirectory, scratchError := os.MkdirTemp(orchestrator.options.ScratchRoot, scratchDirectoryPatternConstant)
	if scratchError != nil {
		return "", fmt.Errorf(scratchCreationErrorTemplateConstant, scratchError)
	}
	defer os.RemoveAll(scratchDirectory)

	if checkoutError := orchestrator.origin.Checkout(executionContext, revision, scratchDirectory); checkoutError != nil {
		return "", fmt.Errorf(checkoutErrorTemplateConstant, revision.AsString(), checkoutError)
	}

	pipelineWork := transform.NewWork(scratchDirectory, orchestrator.reporter)
	pipelineWork.SetAuthor(input.author)
	pipelineWork.SetMessage(input.message)
	pipelineWork.AddLabel(orchestrator.options.OriginLabelName, revision.AsString())

	if pipelineError := orchestrator.options.Transformations.Transform(executionContext, pipelineWork); pipelineError != nil {
		return "", fmt.Errorf(pipelineErrorTemplateConstant, revision.AsString(), pipelineError)
	}

	writtenReference, writeError := orchestrator.destination.Write(executionContext, WriteRequest{
		ContentDirectory:  pipelineWork.WorkingDirectory(),
		Author:            pipelineWork.Author(),
		Message:           pipelineWork.Message(),
		Labels:            pipelineWork.Labels(),
		BaselineReference: input.baselineReference,
	})
	if writeError != nil {
		return "", fmt.Errorf(destinationWriteErrorTemplateConstant, revision.AsString(), writeError)
	}
	return writtenReference, nil
}

// squashedMessage builds the aggregate message for a squashed range: the head
// change's message, followed by a summary of the collapsed changes when the
// range holds more than one.
func squashedMessage(pendingChanges []history.Change) string {
	headChange := pendingChanges[0]
	if len(pendingChanges) == 1 {
		return headChange.Message()
	}

	var messageBuilder strings.Builder
	messageBuilder.WriteString(headChange.Message())
	messageBuilder.WriteString("\n\n")
	messageBuilder.WriteString(fmt.Sprintf(squashedRangeSummaryTemplateConstant, len(pendingChanges)))
	for _, pendingChange := range pendingChanges {
		messageBuilder.WriteString("\n")
		messageBuilder.WriteString(fmt.Sprintf(squashedRangeEntryTemplateConstant, pendingChange.Revision().AsString(), pendingChange.FirstLineMessage()))
	}
	return messageBuilder.String()
}

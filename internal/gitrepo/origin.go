package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/otiai10/copy"

	"github.com/temirov/reposync/internal/authoring"
	"github.com/temirov/reposync/internal/execshell"
	"github.com/temirov/reposync/internal/history"
)

const (
	gitDirectoryNameConstant = ".git"

	gitCloneSubcommandConstant          = "clone"
	gitFetchSubcommandConstant          = "fetch"
	gitLogSubcommandConstant            = "log"
	gitRevParseSubcommandConstant       = "rev-parse"
	gitWorktreeSubcommandConstant       = "worktree"
	gitWorktreeAddSubcommandConstant    = "add"
	gitWorktreeRemoveSubcommandConstant = "remove"
	gitDetachFlagConstant               = "--detach"
	gitForceFlagConstant                = "--force"
	gitNameOnlyFlagConstant             = "--name-only"
	gitDepthFlagConstant                = "--depth"
	gitMaxCountFlagConstant             = "--max-count"
	gitSkipFlagConstant                 = "--skip"
	gitOriginRemoteNameConstant         = "origin"

	gitLogFormatFlagConstant = "--format=%x1e%H%x1f%an%x1f%ae%x1f%aI%x1f%B%x1f"

	recordSeparatorConstant       = "\x1e"
	fieldSeparatorConstant        = "\x1f"
	revisionRangeTemplateConstant = "%s..%s"

	worktreeDirectoryPatternConstant = "reposync-worktree-*"

	executorRequiredMessageConstant       = "git executor is required"
	remoteURLRequiredMessageConstant      = "origin remote url is required"
	referenceRequiredMessageConstant      = "origin reference is required"
	cloneDirectoryRequiredMessageConstant = "origin clone directory is required"

	logRecordFieldCountConstant = 6
	visitBatchSizeConstant      = 64

	malformedLogRecordTemplateConstant = "malformed log record %q"
	checkoutCopyErrorTemplateConstant  = "unable to copy worktree contents: %w"
)

var changeLabelExpression = regexp.MustCompile(`(?m)^([A-Za-z][A-Za-z0-9_-]*): (.*)$`)

// GitExecutor runs git commands. execshell.ShellExecutor satisfies it.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// OriginConfiguration describes the origin repository a GitOrigin reads.
type OriginConfiguration struct {
	// RemoteURL is the URL the clone is created from.
	RemoteURL string
	// Reference is the revision expression resolved as the origin head, for
	// example origin/main.
	Reference string
	// CloneDirectory hosts the long-lived local clone.
	CloneDirectory string
	// FetchDepth limits history depth on the initial clone. Zero clones the
	// full history.
	FetchDepth int
}

// GitOrigin reads changes from a git repository through a local clone.
type GitOrigin struct {
	executor      GitExecutor
	configuration OriginConfiguration
}

// NewGitOrigin validates the configuration and constructs a git origin.
func NewGitOrigin(executor GitExecutor, configuration OriginConfiguration) (*GitOrigin, error) {
	if executor == nil {
		return nil, errors.New(executorRequiredMessageConstant)
	}
	if len(strings.TrimSpace(configuration.RemoteURL)) == 0 {
		return nil, errors.New(remoteURLRequiredMessageConstant)
	}
	if len(strings.TrimSpace(configuration.Reference)) == 0 {
		return nil, errors.New(referenceRequiredMessageConstant)
	}
	if len(strings.TrimSpace(configuration.CloneDirectory)) == 0 {
		return nil, errors.New(cloneDirectoryRequiredMessageConstant)
	}
	return &GitOrigin{executor: executor, configuration: configuration}, nil
}

// EnsureCloned creates the local clone on first use and fetches updates on
// every later call.
func (origin *GitOrigin) EnsureCloned(executionContext context.Context) error {
	gitDirectory := filepath.Join(origin.configuration.CloneDirectory, gitDirectoryNameConstant)
	if _, statError := os.Stat(gitDirectory); statError == nil {
		fetchDetails := execshell.CommandDetails{
			Arguments:        []string{gitFetchSubcommandConstant, gitOriginRemoteNameConstant},
			WorkingDirectory: origin.configuration.CloneDirectory,
		}
		_, fetchError := origin.executor.ExecuteGit(executionContext, fetchDetails)
		return fetchError
	}

	cloneArguments := []string{gitCloneSubcommandConstant}
	if origin.configuration.FetchDepth > 0 {
		cloneArguments = append(cloneArguments, gitDepthFlagConstant, fmt.Sprintf("%d", origin.configuration.FetchDepth))
	}
	cloneArguments = append(cloneArguments, origin.configuration.RemoteURL, origin.configuration.CloneDirectory)

	_, cloneError := origin.executor.ExecuteGit(executionContext, execshell.CommandDetails{Arguments: cloneArguments})
	return cloneError
}

// CurrentRevision resolves the configured reference to a commit.
func (origin *GitOrigin) CurrentRevision(executionContext context.Context) (history.Revision, error) {
	revParseDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, origin.configuration.Reference},
		WorkingDirectory: origin.configuration.CloneDirectory,
	}
	executionResult, executionError := origin.executor.ExecuteGit(executionContext, revParseDetails)
	if executionError != nil {
		return nil, executionError
	}
	return NewGitRevision(strings.TrimSpace(executionResult.StandardOutput)), nil
}

// ChangesBetween returns the changes in (fromRevision, toRevision], most
// recent first. A nil fromRevision returns the history reachable from
// toRevision.
func (origin *GitOrigin) ChangesBetween(executionContext context.Context, fromRevision history.Revision, toRevision history.Revision) ([]history.Change, error) {
	revisionExpression := toRevision.AsString()
	if fromRevision != nil {
		revisionExpression = fmt.Sprintf(revisionRangeTemplateConstant, fromRevision.AsString(), toRevision.AsString())
	}
	return origin.readLog(executionContext, revisionExpression)
}

// VisitChanges walks history newest-to-oldest from the starting revision.
// History is read in bounded batches so a terminating visitor also bounds how
// much of a deep log is materialized.
func (origin *GitOrigin) VisitChanges(executionContext context.Context, startRevision history.Revision, visitor history.ChangesVisitor) error {
	skippedChanges := 0
	for {
		batchArguments := []string{
			gitMaxCountFlagConstant, fmt.Sprintf("%d", visitBatchSizeConstant),
			gitSkipFlagConstant, fmt.Sprintf("%d", skippedChanges),
			startRevision.AsString(),
		}
		changes, logError := origin.readLog(executionContext, batchArguments...)
		if logError != nil {
			return logError
		}
		for _, visitedChange := range changes {
			if contextError := executionContext.Err(); contextError != nil {
				return contextError
			}
			if visitor.Visit(visitedChange) == history.VisitTerminate {
				return nil
			}
		}
		if len(changes) < visitBatchSizeConstant {
			return nil
		}
		skippedChanges += len(changes)
	}
}

// Checkout materializes the tree at the revision into the target directory
// through a detached throwaway worktree.
func (origin *GitOrigin) Checkout(executionContext context.Context, revision history.Revision, targetDirectory string) error {
	worktreeDirectory, worktreeError := os.MkdirTemp("", worktreeDirectoryPatternConstant)
	if worktreeError != nil {
		return worktreeError
	}
	defer os.RemoveAll(worktreeDirectory)

	addDetails := execshell.CommandDetails{
		Arguments:        []string{gitWorktreeSubcommandConstant, gitWorktreeAddSubcommandConstant, gitDetachFlagConstant, gitForceFlagConstant, worktreeDirectory, revision.AsString()},
		WorkingDirectory: origin.configuration.CloneDirectory,
	}
	if _, addError := origin.executor.ExecuteGit(executionContext, addDetails); addError != nil {
		return addError
	}
	defer func() {
		removeDetails := execshell.CommandDetails{
			Arguments:        []string{gitWorktreeSubcommandConstant, gitWorktreeRemoveSubcommandConstant, gitForceFlagConstant, worktreeDirectory},
			WorkingDirectory: origin.configuration.CloneDirectory,
		}
		_, _ = origin.executor.ExecuteGit(executionContext, removeDetails)
	}()

	copyOptions := copy.Options{
		Skip: func(fileInfo os.FileInfo, sourcePath string, destinationPath string) (bool, error) {
			return fileInfo.IsDir() && fileInfo.Name() == gitDirectoryNameConstant, nil
		},
	}
	if copyError := copy.Copy(worktreeDirectory, targetDirectory, copyOptions); copyError != nil {
		return fmt.Errorf(checkoutCopyErrorTemplateConstant, copyError)
	}
	return nil
}

func (origin *GitOrigin) readLog(executionContext context.Context, logArguments ...string) ([]history.Change, error) {
	logDetails := execshell.CommandDetails{
		Arguments:        append([]string{gitLogSubcommandConstant, gitNameOnlyFlagConstant, gitLogFormatFlagConstant}, logArguments...),
		WorkingDirectory: origin.configuration.CloneDirectory,
	}
	executionResult, executionError := origin.executor.ExecuteGit(executionContext, logDetails)
	if executionError != nil {
		return nil, executionError
	}
	return parseLogOutput(executionResult.StandardOutput)
}

// parseLogOutput decodes git log output produced with the record and field
// separator format above, one record per commit with the touched file list
// trailing the final field separator.
func parseLogOutput(logOutput string) ([]history.Change, error) {
	records := strings.Split(logOutput, recordSeparatorConstant)
	changes := make([]history.Change, 0, len(records))
	for _, record := range records {
		if len(strings.TrimSpace(record)) == 0 {
			continue
		}

		fields := strings.SplitN(record, fieldSeparatorConstant, logRecordFieldCountConstant)
		if len(fields) != logRecordFieldCountConstant {
			return nil, fmt.Errorf(malformedLogRecordTemplateConstant, record)
		}

		commitSHA := strings.TrimSpace(fields[0])
		authorName := fields[1]
		authorEmail := fields[2]
		authorTimestamp, timestampError := time.Parse(time.RFC3339, strings.TrimSpace(fields[3]))
		if timestampError != nil {
			return nil, fmt.Errorf(malformedLogRecordTemplateConstant, record)
		}
		changeMessage := strings.TrimRight(fields[4], "\n")

		changeAuthor, authorError := authoring.ParseAuthor(fmt.Sprintf("%s <%s>", authorName, authorEmail))
		if authorError != nil {
			return nil, authorError
		}

		changedFiles := parseChangedFiles(fields[5])
		changeLabels := parseChangeLabels(changeMessage)
		changes = append(changes, history.NewChange(NewGitRevision(commitSHA), changeAuthor, changeMessage, authorTimestamp, changeLabels, changedFiles))
	}
	return changes, nil
}

func parseChangedFiles(fileListing string) []string {
	changedFiles := make([]string, 0)
	for _, fileLine := range strings.Split(fileListing, "\n") {
		trimmedLine := strings.TrimSpace(fileLine)
		if len(trimmedLine) > 0 {
			changedFiles = append(changedFiles, trimmedLine)
		}
	}
	return changedFiles
}

func parseChangeLabels(changeMessage string) []history.Label {
	labelMatches := changeLabelExpression.FindAllStringSubmatch(changeMessage, -1)
	changeLabels := make([]history.Label, 0, len(labelMatches))
	for _, labelMatch := range labelMatches {
		changeLabels = append(changeLabels, history.Label{Name: labelMatch[1], Value: labelMatch[2]})
	}
	return changeLabels
}

package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"

	"github.com/temirov/reposync/internal/execshell"
	"github.com/temirov/reposync/internal/workflow"
)

const (
	gitAddSubcommandConstant      = "add"
	gitCommitSubcommandConstant   = "commit"
	gitPushSubcommandConstant     = "push"
	gitGrepFlagConstant           = "--grep"
	gitExtendedRegexpFlagConstant = "-E"
	gitMaxCountOneFlagConstant    = "-1"
	gitBodyFormatFlagConstant     = "--format=%B"
	gitHeadFormatFlagConstant     = "--format=%H"
	gitAllFlagConstant            = "-A"
	gitAuthorFlagTemplateConstant = "--author=%s"
	gitFileFlagConstant           = "-F"
	gitStandardInputPathConstant  = "-"
	gitHeadReferenceConstant      = "HEAD"

	labelSearchPatternTemplateConstant = "^%s: "
	labelLineTemplateConstant          = "%s: %s"
	baselineLabelNameConstant          = "RepoSync-Baseline"

	destinationDirectoryRequiredMessageConstant = "destination repository directory is required"
	originLabelRequiredMessageConstant          = "destination origin label name is required"

	destinationCleanErrorTemplateConstant = "unable to clear destination tree: %w"
	destinationCopyErrorTemplateConstant  = "unable to copy transformed tree: %w"
)

// DestinationConfiguration describes the git repository a GitDestination
// writes to.
type DestinationConfiguration struct {
	// RepositoryDirectory is the local working copy written to.
	RepositoryDirectory string
	// OriginLabelName is the trailer searched for when recovering the last
	// migrated origin revision.
	OriginLabelName string
	// PushRemote names the remote pushed to after each commit. Empty disables
	// pushing.
	PushRemote string
	// PushReference is the refspec used when pushing.
	PushReference string
}

// GitDestination writes transformed trees as commits on a git working copy.
// The last-migrated marker is carried in commit trailers, so persistence
// rides on the repository itself.
type GitDestination struct {
	executor      GitExecutor
	configuration DestinationConfiguration
}

// NewGitDestination validates the configuration and constructs a git
// destination.
func NewGitDestination(executor GitExecutor, configuration DestinationConfiguration) (*GitDestination, error) {
	if executor == nil {
		return nil, errors.New(executorRequiredMessageConstant)
	}
	if len(strings.TrimSpace(configuration.RepositoryDirectory)) == 0 {
		return nil, errors.New(destinationDirectoryRequiredMessageConstant)
	}
	if len(strings.TrimSpace(configuration.OriginLabelName)) == 0 {
		return nil, errors.New(originLabelRequiredMessageConstant)
	}
	return &GitDestination{executor: executor, configuration: configuration}, nil
}

// LastMigratedRevision recovers the origin revision recorded by the most
// recent migrated commit, or an empty string when no commit carries the
// origin label.
func (destination *GitDestination) LastMigratedRevision(executionContext context.Context, _ string) (string, error) {
	searchPattern := fmt.Sprintf(labelSearchPatternTemplateConstant, destination.configuration.OriginLabelName)
	logDetails := execshell.CommandDetails{
		Arguments:        []string{gitLogSubcommandConstant, gitMaxCountOneFlagConstant, gitExtendedRegexpFlagConstant, gitGrepFlagConstant, searchPattern, gitBodyFormatFlagConstant},
		WorkingDirectory: destination.configuration.RepositoryDirectory,
	}
	executionResult, executionError := destination.executor.ExecuteGit(executionContext, logDetails)
	if executionError != nil {
		return "", executionError
	}

	labelPrefix := destination.configuration.OriginLabelName + ": "
	for _, bodyLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(bodyLine)
		if strings.HasPrefix(trimmedLine, labelPrefix) {
			return strings.TrimPrefix(trimmedLine, labelPrefix), nil
		}
	}
	return "", nil
}

// Write replaces the working tree with the transformed content, commits it
// with the request's author and message plus label trailers, optionally
// pushes, and returns the new commit sha. A baseline reference on the request
// is recorded as an additional trailer.
func (destination *GitDestination) Write(executionContext context.Context, request workflow.WriteRequest) (string, error) {
	if replaceError := destination.replaceWorkingTree(request.ContentDirectory); replaceError != nil {
		return "", replaceError
	}

	addDetails := execshell.CommandDetails{
		Arguments:        []string{gitAddSubcommandConstant, gitAllFlagConstant},
		WorkingDirectory: destination.configuration.RepositoryDirectory,
	}
	if _, addError := destination.executor.ExecuteGit(executionContext, addDetails); addError != nil {
		return "", addError
	}

	commitDetails := execshell.CommandDetails{
		Arguments: []string{
			gitCommitSubcommandConstant,
			fmt.Sprintf(gitAuthorFlagTemplateConstant, request.Author.String()),
			gitFileFlagConstant,
			gitStandardInputPathConstant,
		},
		WorkingDirectory: destination.configuration.RepositoryDirectory,
		StandardInput:    []byte(commitMessage(request)),
	}
	if _, commitError := destination.executor.ExecuteGit(executionContext, commitDetails); commitError != nil {
		return "", commitError
	}

	if len(destination.configuration.PushRemote) > 0 {
		pushDetails := execshell.CommandDetails{
			Arguments:        []string{gitPushSubcommandConstant, destination.configuration.PushRemote, destination.configuration.PushReference},
			WorkingDirectory: destination.configuration.RepositoryDirectory,
		}
		if _, pushError := destination.executor.ExecuteGit(executionContext, pushDetails); pushError != nil {
			return "", pushError
		}
	}

	headDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitHeadReferenceConstant},
		WorkingDirectory: destination.configuration.RepositoryDirectory,
	}
	headResult, headError := destination.executor.ExecuteGit(executionContext, headDetails)
	if headError != nil {
		return "", headError
	}
	return strings.TrimSpace(headResult.StandardOutput), nil
}

// replaceWorkingTree clears everything except the git directory and copies
// the transformed content in.
func (destination *GitDestination) replaceWorkingTree(contentDirectory string) error {
	directoryEntries, readError := os.ReadDir(destination.configuration.RepositoryDirectory)
	if readError != nil {
		return fmt.Errorf(destinationCleanErrorTemplateConstant, readError)
	}
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.Name() == gitDirectoryNameConstant {
			continue
		}
		if removeError := os.RemoveAll(filepath.Join(destination.configuration.RepositoryDirectory, directoryEntry.Name())); removeError != nil {
			return fmt.Errorf(destinationCleanErrorTemplateConstant, removeError)
		}
	}

	copyOptions := copy.Options{
		Skip: func(fileInfo os.FileInfo, sourcePath string, destinationPath string) (bool, error) {
			return fileInfo.IsDir() && fileInfo.Name() == gitDirectoryNameConstant, nil
		},
	}
	if copyError := copy.Copy(contentDirectory, destination.configuration.RepositoryDirectory, copyOptions); copyError != nil {
		return fmt.Errorf(destinationCopyErrorTemplateConstant, copyError)
	}
	return nil
}

// commitMessage appends the request's labels, plus the baseline reference of
// change request imports, as trailers unless the message already carries them.
func commitMessage(request workflow.WriteRequest) string {
	trailerLines := make([]string, 0, len(request.Labels)+1)
	for _, requestLabel := range request.Labels {
		trailerLines = append(trailerLines, fmt.Sprintf(labelLineTemplateConstant, requestLabel.Name, requestLabel.Value))
	}
	if len(request.BaselineReference) > 0 {
		trailerLines = append(trailerLines, fmt.Sprintf(labelLineTemplateConstant, baselineLabelNameConstant, request.BaselineReference))
	}

	var messageBuilder strings.Builder
	messageBuilder.WriteString(strings.TrimRight(request.Message, "\n"))
	wroteTrailerBlock := false
	for _, trailerLine := range trailerLines {
		if strings.Contains(request.Message, trailerLine) {
			continue
		}
		if wroteTrailerBlock {
			messageBuilder.WriteString("\n")
		} else {
			messageBuilder.WriteString("\n\n")
			wroteTrailerBlock = true
		}
		messageBuilder.WriteString(trailerLine)
	}
	messageBuilder.WriteString("\n")
	return messageBuilder.String()
}

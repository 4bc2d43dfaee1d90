package gitrepo_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposync/internal/execshell"
	"github.com/temirov/reposync/internal/gitrepo"
	"github.com/temirov/reposync/internal/history"
)

const (
	testRemoteURLConstant    = "https://example.com/origin.git"
	testReferenceConstant    = "origin/main"
	testHeadSHAConstant      = "aaa111"
	testParentSHAConstant    = "bbb222"
	testOriginLabelConstant  = "RepoSync-Origin-Rev"
	testLogTimestampConstant = "2026-08-30T10:00:00Z"
	testCheckoutFileConstant = "checked-out.txt"
)

// scriptedGitExecutor replies to git invocations by subcommand and records
// every command it sees.
type scriptedGitExecutor struct {
	responses        map[string]execshell.ExecutionResult
	handler          func(details execshell.CommandDetails)
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if executor.handler != nil {
		executor.handler(details)
	}
	if len(details.Arguments) > 0 {
		if response, found := executor.responses[details.Arguments[0]]; found {
			return response, nil
		}
	}
	return execshell.ExecutionResult{}, nil
}

func makeLogOutput(records ...string) string {
	return strings.Join(records, "")
}

func makeLogRecord(sha string, authorName string, authorEmail string, message string, files []string) string {
	var recordBuilder strings.Builder
	recordBuilder.WriteString("\x1e")
	recordBuilder.WriteString(sha)
	recordBuilder.WriteString("\x1f")
	recordBuilder.WriteString(authorName)
	recordBuilder.WriteString("\x1f")
	recordBuilder.WriteString(authorEmail)
	recordBuilder.WriteString("\x1f")
	recordBuilder.WriteString(testLogTimestampConstant)
	recordBuilder.WriteString("\x1f")
	recordBuilder.WriteString(message)
	recordBuilder.WriteString("\x1f")
	recordBuilder.WriteString("\n\n")
	recordBuilder.WriteString(strings.Join(files, "\n"))
	recordBuilder.WriteString("\n")
	return recordBuilder.String()
}

func makeTestOrigin(testInstance *testing.T, executor gitrepo.GitExecutor) *gitrepo.GitOrigin {
	testInstance.Helper()
	origin, constructionError := gitrepo.NewGitOrigin(executor, gitrepo.OriginConfiguration{
		RemoteURL:      testRemoteURLConstant,
		Reference:      testReferenceConstant,
		CloneDirectory: testInstance.TempDir(),
	})
	require.NoError(testInstance, constructionError)
	return origin
}

func TestNewGitOriginValidation(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}

	testCases := []struct {
		name          string
		executor      gitrepo.GitExecutor
		configuration gitrepo.OriginConfiguration
	}{
		{
			name:          "missing_executor",
			configuration: gitrepo.OriginConfiguration{RemoteURL: testRemoteURLConstant, Reference: testReferenceConstant, CloneDirectory: "/tmp/x"},
		},
		{
			name:          "missing_remote_url",
			executor:      executor,
			configuration: gitrepo.OriginConfiguration{Reference: testReferenceConstant, CloneDirectory: "/tmp/x"},
		},
		{
			name:          "missing_reference",
			executor:      executor,
			configuration: gitrepo.OriginConfiguration{RemoteURL: testRemoteURLConstant, CloneDirectory: "/tmp/x"},
		},
		{
			name:          "missing_clone_directory",
			executor:      executor,
			configuration: gitrepo.OriginConfiguration{RemoteURL: testRemoteURLConstant, Reference: testReferenceConstant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, constructionError := gitrepo.NewGitOrigin(testCase.executor, testCase.configuration)
			require.Error(testInstance, constructionError)
		})
	}
}

func TestCurrentRevisionResolvesConfiguredReference(testInstance *testing.T) {
	executor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		"rev-parse": {StandardOutput: testHeadSHAConstant + "\n"},
	}}
	origin := makeTestOrigin(testInstance, executor)

	headRevision, resolutionError := origin.CurrentRevision(context.Background())
	require.NoError(testInstance, resolutionError)
	require.Equal(testInstance, testHeadSHAConstant, headRevision.AsString())

	require.Len(testInstance, executor.recordedCommands, 1)
	require.Equal(testInstance, []string{"rev-parse", testReferenceConstant}, executor.recordedCommands[0].Arguments)
}

func TestChangesBetweenParsesLogRecords(testInstance *testing.T) {
	logOutput := makeLogOutput(
		makeLogRecord(testHeadSHAConstant, "Origin Dev", "dev@example.com", "newest change\n\n"+testOriginLabelConstant+": dest-base", []string{"src/main.go", "docs/readme.md"}),
		makeLogRecord(testParentSHAConstant, "Origin Dev", "dev@example.com", "older change", []string{"src/lib.go"}),
	)
	executor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		"log": {StandardOutput: logOutput},
	}}
	origin := makeTestOrigin(testInstance, executor)

	changes, rangeError := origin.ChangesBetween(context.Background(), gitrepo.NewGitRevision("ccc333"), gitrepo.NewGitRevision(testHeadSHAConstant))
	require.NoError(testInstance, rangeError)
	require.Len(testInstance, changes, 2)

	newestChange := changes[0]
	require.Equal(testInstance, testHeadSHAConstant, newestChange.Revision().AsString())
	require.Equal(testInstance, "Origin Dev", newestChange.Author().Name())
	require.Equal(testInstance, "dev@example.com", newestChange.Author().Email())
	require.Equal(testInstance, "newest change", newestChange.FirstLineMessage())

	labelValue, labelFound := newestChange.LastLabelValue(testOriginLabelConstant)
	require.True(testInstance, labelFound)
	require.Equal(testInstance, "dest-base", labelValue)

	changedFiles, filesKnown := newestChange.ChangedFiles()
	require.True(testInstance, filesKnown)
	require.Equal(testInstance, []string{"src/main.go", "docs/readme.md"}, changedFiles)

	require.Len(testInstance, executor.recordedCommands, 1)
	require.Contains(testInstance, executor.recordedCommands[0].Arguments, "ccc333.."+testHeadSHAConstant)
}

func TestChangesBetweenWithoutMarkerUsesBareRevision(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	origin := makeTestOrigin(testInstance, executor)

	_, rangeError := origin.ChangesBetween(context.Background(), nil, gitrepo.NewGitRevision(testHeadSHAConstant))
	require.NoError(testInstance, rangeError)

	require.Len(testInstance, executor.recordedCommands, 1)
	require.Contains(testInstance, executor.recordedCommands[0].Arguments, testHeadSHAConstant)
	require.NotContains(testInstance, strings.Join(executor.recordedCommands[0].Arguments, " "), "..")
}

func TestVisitChangesStopsOnTerminate(testInstance *testing.T) {
	logOutput := makeLogOutput(
		makeLogRecord(testHeadSHAConstant, "Origin Dev", "dev@example.com", "newest change", []string{"src/main.go"}),
		makeLogRecord(testParentSHAConstant, "Origin Dev", "dev@example.com", "older change", []string{"src/lib.go"}),
	)
	executor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		"log": {StandardOutput: logOutput},
	}}
	origin := makeTestOrigin(testInstance, executor)

	visitedRevisions := make([]string, 0, 2)
	visitError := origin.VisitChanges(context.Background(), gitrepo.NewGitRevision(testHeadSHAConstant), history.ChangesVisitorFunc(func(change history.Change) history.VisitResult {
		visitedRevisions = append(visitedRevisions, change.Revision().AsString())
		return history.VisitTerminate
	}))
	require.NoError(testInstance, visitError)
	require.Equal(testInstance, []string{testHeadSHAConstant}, visitedRevisions)
}

func TestVisitChangesReadsHistoryInBoundedBatches(testInstance *testing.T) {
	firstBatchRecords := make([]string, 0, 64)
	for recordIndex := 0; recordIndex < 64; recordIndex++ {
		firstBatchRecords = append(firstBatchRecords, makeLogRecord(fmt.Sprintf("sha%03d", recordIndex), "Origin Dev", "dev@example.com", "change", []string{"src/main.go"}))
	}
	executor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		"log": {StandardOutput: makeLogOutput(firstBatchRecords...)},
	}}
	executor.handler = func(details execshell.CommandDetails) {
		if len(details.Arguments) > 0 && details.Arguments[0] == "log" && strings.Contains(strings.Join(details.Arguments, " "), "--skip 64") {
			executor.responses["log"] = execshell.ExecutionResult{}
		}
	}
	origin := makeTestOrigin(testInstance, executor)

	visitedCount := 0
	visitError := origin.VisitChanges(context.Background(), gitrepo.NewGitRevision(testHeadSHAConstant), history.ChangesVisitorFunc(func(history.Change) history.VisitResult {
		visitedCount++
		return history.VisitContinue
	}))
	require.NoError(testInstance, visitError)
	require.Equal(testInstance, 64, visitedCount)

	require.Len(testInstance, executor.recordedCommands, 2)
	firstArguments := strings.Join(executor.recordedCommands[0].Arguments, " ")
	require.Contains(testInstance, firstArguments, "--max-count 64")
	require.Contains(testInstance, firstArguments, "--skip 0")
	require.Contains(testInstance, strings.Join(executor.recordedCommands[1].Arguments, " "), "--skip 64")
}

func TestVisitChangesTerminateStopsFurtherLogReads(testInstance *testing.T) {
	logOutput := makeLogOutput(
		makeLogRecord(testHeadSHAConstant, "Origin Dev", "dev@example.com", "newest change", []string{"src/main.go"}),
	)
	executor := &scriptedGitExecutor{responses: map[string]execshell.ExecutionResult{
		"log": {StandardOutput: logOutput},
	}}
	origin := makeTestOrigin(testInstance, executor)

	visitError := origin.VisitChanges(context.Background(), gitrepo.NewGitRevision(testHeadSHAConstant), history.ChangesVisitorFunc(func(history.Change) history.VisitResult {
		return history.VisitTerminate
	}))
	require.NoError(testInstance, visitError)
	require.Len(testInstance, executor.recordedCommands, 1)
}

func TestCheckoutCopiesWorktreeWithoutGitDirectory(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	executor.handler = func(details execshell.CommandDetails) {
		if len(details.Arguments) < 2 || details.Arguments[0] != "worktree" || details.Arguments[1] != "add" {
			return
		}
		worktreeDirectory := details.Arguments[4]
		require.NoError(testInstance, os.MkdirAll(filepath.Join(worktreeDirectory, ".git"), 0o755))
		require.NoError(testInstance, os.WriteFile(filepath.Join(worktreeDirectory, ".git", "HEAD"), []byte("ref"), 0o644))
		require.NoError(testInstance, os.WriteFile(filepath.Join(worktreeDirectory, testCheckoutFileConstant), []byte("payload"), 0o644))
	}
	origin := makeTestOrigin(testInstance, executor)

	targetDirectory := testInstance.TempDir()
	checkoutError := origin.Checkout(context.Background(), gitrepo.NewGitRevision(testHeadSHAConstant), targetDirectory)
	require.NoError(testInstance, checkoutError)

	copiedPayload, readError := os.ReadFile(filepath.Join(targetDirectory, testCheckoutFileConstant))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "payload", string(copiedPayload))

	_, gitStatError := os.Stat(filepath.Join(targetDirectory, ".git"))
	require.True(testInstance, os.IsNotExist(gitStatError))

	require.Len(testInstance, executor.recordedCommands, 2)
	require.Equal(testInstance, "remove", executor.recordedCommands[1].Arguments[1])
}

func TestEnsureClonedClonesOnceThenFetches(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	cloneDirectory := testInstance.TempDir()
	origin, constructionError := gitrepo.NewGitOrigin(executor, gitrepo.OriginConfiguration{
		RemoteURL:      testRemoteURLConstant,
		Reference:      testReferenceConstant,
		CloneDirectory: cloneDirectory,
	})
	require.NoError(testInstance, constructionError)

	require.NoError(testInstance, origin.EnsureCloned(context.Background()))
	require.Equal(testInstance, "clone", executor.recordedCommands[0].Arguments[0])

	require.NoError(testInstance, os.MkdirAll(filepath.Join(cloneDirectory, ".git"), 0o755))
	require.NoError(testInstance, origin.EnsureCloned(context.Background()))
	require.Equal(testInstance, "fetch", executor.recordedCommands[1].Arguments[0])
}

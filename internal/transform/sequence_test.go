package transform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposync/internal/glob"
	"github.com/temirov/reposync/internal/transform"
)

const (
	testMovedFileOriginalNameConstant = "first.txt"
	testMovedFileRenamedNameConstant  = "renamed/first.txt"
	testReplaceBeforeTextConstant     = "internal-name"
	testReplaceAfterTextConstant      = "public-name"
	testSampleFileContentConstant     = "package internal-name\n"
	testVerifyPatternConstant         = "public-name"
)

type recordingProgressReporter struct {
	messages []string
}

func (reporter *recordingProgressReporter) Progress(message string) {
	reporter.messages = append(reporter.messages, message)
}

func writeWorkFile(testInstance *testing.T, workingDirectory string, relativePath string, content string) {
	testInstance.Helper()
	absolutePath := filepath.Join(workingDirectory, filepath.FromSlash(relativePath))
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
	require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), 0o644))
}

func readWorkFile(testInstance *testing.T, workingDirectory string, relativePath string) string {
	testInstance.Helper()
	content, readError := os.ReadFile(filepath.Join(workingDirectory, filepath.FromSlash(relativePath)))
	require.NoError(testInstance, readError)
	return string(content)
}

func describeSequence(testInstance *testing.T, transformation transform.Transformation) []string {
	testInstance.Helper()
	sequence, isSequence := transformation.(transform.Sequence)
	require.True(testInstance, isSequence)
	descriptions := []string{}
	for _, step := range sequence.Steps() {
		descriptions = append(descriptions, step.Describe())
	}
	return descriptions
}

func TestSequenceProgressMessages(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeWorkFile(testInstance, workingDirectory, testMovedFileOriginalNameConstant, testSampleFileContentConstant)

	reporter := &recordingProgressReporter{}
	work := transform.NewWork(workingDirectory, reporter)

	pipeline := transform.NewSequence(
		transform.NewMove(testMovedFileOriginalNameConstant, testMovedFileRenamedNameConstant),
		transform.NewReplace(testReplaceBeforeTextConstant, testReplaceAfterTextConstant, glob.Glob{}),
	)

	require.NoError(testInstance, pipeline.Transform(context.Background(), work))

	require.Equal(testInstance, []string{
		"[ 1/ 2] Transform move first.txt to renamed/first.txt",
		"[ 2/ 2] Transform replace \"internal-name\" with \"public-name\"",
	}, reporter.messages)

	require.Equal(testInstance, "package public-name\n", readWorkFile(testInstance, workingDirectory, testMovedFileRenamedNameConstant))
}

func TestSequenceFailFast(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()

	reporter := &recordingProgressReporter{}
	work := transform.NewWork(workingDirectory, reporter)

	pipeline := transform.NewSequence(
		transform.NewMove("absent.txt", "anywhere.txt"),
		transform.NewReplace(testReplaceBeforeTextConstant, testReplaceAfterTextConstant, glob.Glob{}),
	)

	pipelineError := pipeline.Transform(context.Background(), work)
	require.Error(testInstance, pipelineError)
	require.Contains(testInstance, pipelineError.Error(), "absent.txt")
	require.Len(testInstance, reporter.messages, 1)
}

func TestSequenceEmptyIsNoOp(testInstance *testing.T) {
	work := transform.NewWork(testInstance.TempDir(), nil)
	pipeline := transform.NewSequence()

	require.NoError(testInstance, pipeline.Transform(context.Background(), work))

	reversed, reversalError := pipeline.Reverse()
	require.NoError(testInstance, reversalError)
	require.Empty(testInstance, describeSequence(testInstance, reversed))
}

func TestSequenceReverseOrderAndRoundTrip(testInstance *testing.T) {
	pipeline := transform.NewSequence(
		transform.NewMove("a.txt", "b.txt"),
		transform.NewReplace("one", "two", glob.Glob{}),
	)

	reversed, reversalError := pipeline.Reverse()
	require.NoError(testInstance, reversalError)
	require.Equal(testInstance, []string{
		"replace \"two\" with \"one\"",
		"move b.txt to a.txt",
	}, describeSequence(testInstance, reversed))

	roundTripped, roundTripError := reversed.Reverse()
	require.NoError(testInstance, roundTripError)
	require.Equal(testInstance, []string{
		"move a.txt to b.txt",
		"replace \"one\" with \"two\"",
	}, describeSequence(testInstance, roundTripped))
}

func TestSequenceApplyThenReverseRestoresTree(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeWorkFile(testInstance, workingDirectory, testMovedFileOriginalNameConstant, testSampleFileContentConstant)

	pipeline := transform.NewSequence(
		transform.NewMove(testMovedFileOriginalNameConstant, testMovedFileRenamedNameConstant),
		transform.NewReplace(testReplaceBeforeTextConstant, testReplaceAfterTextConstant, glob.Glob{}),
	)

	work := transform.NewWork(workingDirectory, nil)
	require.NoError(testInstance, pipeline.Transform(context.Background(), work))

	reversed, reversalError := pipeline.Reverse()
	require.NoError(testInstance, reversalError)
	require.NoError(testInstance, reversed.Transform(context.Background(), transform.NewWork(workingDirectory, nil)))

	require.Equal(testInstance, testSampleFileContentConstant, readWorkFile(testInstance, workingDirectory, testMovedFileOriginalNameConstant))
}

func TestSequenceReverseFailsAtomicallyOnNonReversibleElement(testInstance *testing.T) {
	verification, verifyError := transform.NewVerifyMatch(testVerifyPatternConstant, glob.Glob{})
	require.NoError(testInstance, verifyError)

	pipeline := transform.NewSequence(
		transform.NewMove("a.txt", "b.txt"),
		verification,
	)

	reversed, reversalError := pipeline.Reverse()
	require.Nil(testInstance, reversed)
	require.Error(testInstance, reversalError)
	require.Contains(testInstance, reversalError.Error(), verification.Describe())

	var nonReversible transform.NonReversibleError
	require.ErrorAs(testInstance, reversalError, &nonReversible)
}

func TestSequenceHonorsCancellationBetweenSteps(testInstance *testing.T) {
	cancelledContext, cancelFunction := context.WithCancel(context.Background())
	cancelFunction()

	pipeline := transform.NewSequence(transform.NewReplace("a", "b", glob.Glob{}))
	pipelineError := pipeline.Transform(cancelledContext, transform.NewWork(testInstance.TempDir(), nil))
	require.ErrorIs(testInstance, pipelineError, context.Canceled)
}

func TestExplicitReversalSwapsPair(testInstance *testing.T) {
	forward := transform.NewReplace("one", "two", glob.Glob{})
	backward := transform.NewReplace("three", "four", glob.Glob{})

	wrapper := transform.NewExplicitReversal(forward, backward)
	require.Equal(testInstance, forward.Describe(), wrapper.Describe())

	reversedOnce, firstReversalError := wrapper.Reverse()
	require.NoError(testInstance, firstReversalError)
	require.Equal(testInstance, backward.Describe(), reversedOnce.Describe())

	reversedTwice, secondReversalError := reversedOnce.Reverse()
	require.NoError(testInstance, secondReversalError)
	require.Equal(testInstance, wrapper, reversedTwice)
}

func TestExplicitReversalRunsForwardSide(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeWorkFile(testInstance, workingDirectory, "only.txt", "one\n")

	wrapper := transform.NewExplicitReversal(
		transform.NewReplace("one", "two", glob.Glob{}),
		transform.NewReplace("never", "applied", glob.Glob{}),
	)

	require.NoError(testInstance, wrapper.Transform(context.Background(), transform.NewWork(workingDirectory, nil)))
	require.Equal(testInstance, "two\n", readWorkFile(testInstance, workingDirectory, "only.txt"))
}

func TestVerifyMatchReportsMismatch(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeWorkFile(testInstance, workingDirectory, "checked.txt", "unexpected content\n")

	verification, verifyError := transform.NewVerifyMatch(testVerifyPatternConstant, glob.Glob{})
	require.NoError(testInstance, verifyError)

	verificationError := verification.Transform(context.Background(), transform.NewWork(workingDirectory, nil))
	require.Error(testInstance, verificationError)
	require.Contains(testInstance, verificationError.Error(), "checked.txt")
}

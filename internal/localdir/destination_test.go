package localdir_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposync/internal/authoring"
	"github.com/temirov/reposync/internal/history"
	"github.com/temirov/reposync/internal/localdir"
	"github.com/temirov/reposync/internal/statestore"
	"github.com/temirov/reposync/internal/workflow"
)

const (
	testMigrationIdentifierConstant = "project-to-folder"
	testOriginLabelNameConstant     = "RepoSync-Origin-Rev"
	testOriginRevisionConstant      = "aaa111"
	testPayloadFileNameConstant     = "payload.txt"
	testStaleFileNameConstant       = "stale.txt"
)

func makeMarkerStore(testInstance *testing.T) *statestore.Store {
	testInstance.Helper()
	markerStore, openError := statestore.Open(filepath.Join(testInstance.TempDir(), "markers.db"))
	require.NoError(testInstance, openError)
	testInstance.Cleanup(func() { _ = markerStore.Close() })
	return markerStore
}

func makeWriteRequest(testInstance *testing.T, contentDirectory string) workflow.WriteRequest {
	testInstance.Helper()
	writeAuthor, authorError := authoring.NewAuthor("Sync Bot", "sync@example.com")
	require.NoError(testInstance, authorError)
	return workflow.WriteRequest{
		ContentDirectory: contentDirectory,
		Author:           writeAuthor,
		Message:          "import change",
		Labels:           []history.Label{{Name: testOriginLabelNameConstant, Value: testOriginRevisionConstant}},
	}
}

func TestNewFolderDestinationValidation(testInstance *testing.T) {
	markerStore := makeMarkerStore(testInstance)

	_, missingTargetError := localdir.NewFolderDestination("", testMigrationIdentifierConstant, testOriginLabelNameConstant, markerStore)
	require.Error(testInstance, missingTargetError)

	_, missingStoreError := localdir.NewFolderDestination(testInstance.TempDir(), testMigrationIdentifierConstant, testOriginLabelNameConstant, nil)
	require.Error(testInstance, missingStoreError)
}

func TestWriteReplacesTargetAndRecordsMarker(testInstance *testing.T) {
	markerStore := makeMarkerStore(testInstance)
	targetDirectory := filepath.Join(testInstance.TempDir(), "exported")
	require.NoError(testInstance, os.MkdirAll(targetDirectory, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(targetDirectory, testStaleFileNameConstant), []byte("stale"), 0o644))

	destination, constructionError := localdir.NewFolderDestination(targetDirectory, testMigrationIdentifierConstant, testOriginLabelNameConstant, markerStore)
	require.NoError(testInstance, constructionError)

	contentDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(contentDirectory, testPayloadFileNameConstant), []byte("payload"), 0o644))

	writtenReference, writeError := destination.Write(context.Background(), makeWriteRequest(testInstance, contentDirectory))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, targetDirectory, writtenReference)

	copiedPayload, readError := os.ReadFile(filepath.Join(targetDirectory, testPayloadFileNameConstant))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "payload", string(copiedPayload))

	_, staleStatError := os.Stat(filepath.Join(targetDirectory, testStaleFileNameConstant))
	require.True(testInstance, os.IsNotExist(staleStatError))

	lastMigrated, lookupError := destination.LastMigratedRevision(context.Background(), testMigrationIdentifierConstant)
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, testOriginRevisionConstant, lastMigrated)
}

func TestLastMigratedRevisionWithoutWritesIsEmpty(testInstance *testing.T) {
	markerStore := makeMarkerStore(testInstance)
	destination, constructionError := localdir.NewFolderDestination(filepath.Join(testInstance.TempDir(), "exported"), testMigrationIdentifierConstant, testOriginLabelNameConstant, markerStore)
	require.NoError(testInstance, constructionError)

	lastMigrated, lookupError := destination.LastMigratedRevision(context.Background(), testMigrationIdentifierConstant)
	require.NoError(testInstance, lookupError)
	require.Empty(testInstance, lastMigrated)
}

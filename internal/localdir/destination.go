package localdir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"

	"github.com/temirov/reposync/internal/statestore"
	"github.com/temirov/reposync/internal/workflow"
)

const (
	targetDirectoryRequiredMessageConstant = "folder destination target directory is required"
	markerStoreRequiredMessageConstant     = "folder destination marker store is required"

	targetPreparationErrorTemplateConstant = "unable to prepare target directory: %w"
	contentCopyErrorTemplateConstant       = "unable to copy transformed tree: %w"
	markerRecordErrorTemplateConstant      = "unable to record last migrated revision: %w"
)

// FolderDestination writes transformed trees into a directory on disk,
// replacing its previous contents on every write.
type FolderDestination struct {
	targetDirectory     string
	migrationIdentifier string
	originLabelName     string
	markerStore         *statestore.Store
}

// NewFolderDestination validates its inputs and constructs a folder
// destination.
func NewFolderDestination(targetDirectory string, migrationIdentifier string, originLabelName string, markerStore *statestore.Store) (*FolderDestination, error) {
	if len(strings.TrimSpace(targetDirectory)) == 0 {
		return nil, errors.New(targetDirectoryRequiredMessageConstant)
	}
	if markerStore == nil {
		return nil, errors.New(markerStoreRequiredMessageConstant)
	}
	return &FolderDestination{
		targetDirectory:     targetDirectory,
		migrationIdentifier: migrationIdentifier,
		originLabelName:     originLabelName,
		markerStore:         markerStore,
	}, nil
}

// LastMigratedRevision reads the marker recorded by the previous write.
func (destination *FolderDestination) LastMigratedRevision(executionContext context.Context, migrationIdentifier string) (string, error) {
	return destination.markerStore.Lookup(executionContext, migrationIdentifier)
}

// Write replaces the target directory contents with the transformed tree and
// records the migrated origin revision carried on the request's origin label.
// The returned reference is the target directory path. The request's baseline
// reference is discarded: a plain directory has no commit ancestry, so there
// is nothing to anchor a change request against.
func (destination *FolderDestination) Write(executionContext context.Context, request workflow.WriteRequest) (string, error) {
	if removeError := os.RemoveAll(destination.targetDirectory); removeError != nil {
		return "", fmt.Errorf(targetPreparationErrorTemplateConstant, removeError)
	}
	if createError := os.MkdirAll(filepath.Dir(destination.targetDirectory), 0o755); createError != nil {
		return "", fmt.Errorf(targetPreparationErrorTemplateConstant, createError)
	}
	if copyError := copy.Copy(request.ContentDirectory, destination.targetDirectory); copyError != nil {
		return "", fmt.Errorf(contentCopyErrorTemplateConstant, copyError)
	}

	for _, requestLabel := range request.Labels {
		if requestLabel.Name != destination.originLabelName {
			continue
		}
		if recordError := destination.markerStore.Record(executionContext, destination.migrationIdentifier, requestLabel.Value); recordError != nil {
			return "", fmt.Errorf(markerRecordErrorTemplateConstant, recordError)
		}
	}
	return destination.targetDirectory, nil
}

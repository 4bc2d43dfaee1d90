package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const (
	moveDescriptionTemplateConstant   = "move %s to %s"
	moveMissingSourceTemplateConstant = "path %q does not exist in the checkout"
	moveDestinationDirPermsConstant   = 0o755
	moveCreateParentTemplateConstant  = "unable to create parent of %q: %w"
	moveRenameFailureTemplateConstant = "unable to move %q to %q: %w"
)

// Move relocates a file or directory inside the working tree. Paths are
// relative to the work directory. The reverse moves the path back.
type Move struct {
	currentPath string
	newPath     string
}

// NewMove constructs a Move transformation.
func NewMove(currentPath string, newPath string) Move {
	return Move{currentPath: currentPath, newPath: newPath}
}

// Transform implements Transformation.
func (move Move) Transform(executionContext context.Context, work *Work) error {
	sourcePath := filepath.Join(work.WorkingDirectory(), filepath.FromSlash(move.currentPath))
	targetPath := filepath.Join(work.WorkingDirectory(), filepath.FromSlash(move.newPath))

	if _, statError := os.Stat(sourcePath); statError != nil {
		return fmt.Errorf(moveMissingSourceTemplateConstant, move.currentPath)
	}

	if mkdirError := os.MkdirAll(filepath.Dir(targetPath), moveDestinationDirPermsConstant); mkdirError != nil {
		return fmt.Errorf(moveCreateParentTemplateConstant, move.newPath, mkdirError)
	}

	if renameError := os.Rename(sourcePath, targetPath); renameError != nil {
		return fmt.Errorf(moveRenameFailureTemplateConstant, move.currentPath, move.newPath, renameError)
	}

	return nil
}

// Reverse implements Transformation by swapping source and target.
func (move Move) Reverse() (Transformation, error) {
	return Move{currentPath: move.newPath, newPath: move.currentPath}, nil
}

// Describe implements Transformation.
func (move Move) Describe() string {
	return fmt.Sprintf(moveDescriptionTemplateConstant, move.currentPath, move.newPath)
}

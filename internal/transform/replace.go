package transform

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/reposync/internal/glob"
)

const (
	replaceDescriptionTemplateConstant  = "replace %q with %q"
	replaceReadFailureTemplateConstant  = "unable to read %q: %w"
	replaceWriteFailureTemplateConstant = "unable to write %q: %w"
)

// Replace substitutes every occurrence of a literal text with another across
// the files selected by a glob. The reverse swaps the two literals, so a
// replacement is only reversal-stable when the substitution is unambiguous.
type Replace struct {
	beforeText  string
	afterText   string
	fileMatcher glob.Glob
}

// NewReplace constructs a Replace over the files matched by fileMatcher. An
// empty matcher selects every file in the tree.
func NewReplace(beforeText string, afterText string, fileMatcher glob.Glob) Replace {
	if fileMatcher.IsEmpty() {
		fileMatcher = glob.EverythingGlob()
	}
	return Replace{beforeText: beforeText, afterText: afterText, fileMatcher: fileMatcher}
}

// Transform implements Transformation.
func (replace Replace) Transform(executionContext context.Context, work *Work) error {
	workingDirectory := work.WorkingDirectory()

	walkError := filepath.WalkDir(workingDirectory, func(currentPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if directoryEntry.IsDir() {
			return nil
		}

		relativePath, relativeError := filepath.Rel(workingDirectory, currentPath)
		if relativeError != nil {
			return relativeError
		}
		if !replace.fileMatcher.Matches(filepath.ToSlash(relativePath)) {
			return nil
		}

		fileContent, readError := os.ReadFile(currentPath)
		if readError != nil {
			return fmt.Errorf(replaceReadFailureTemplateConstant, relativePath, readError)
		}

		replacedContent := strings.ReplaceAll(string(fileContent), replace.beforeText, replace.afterText)
		if replacedContent == string(fileContent) {
			return nil
		}

		fileInfo, infoError := directoryEntry.Info()
		if infoError != nil {
			return infoError
		}
		if writeError := os.WriteFile(currentPath, []byte(replacedContent), fileInfo.Mode().Perm()); writeError != nil {
			return fmt.Errorf(replaceWriteFailureTemplateConstant, relativePath, writeError)
		}
		return nil
	})
	return walkError
}

// Reverse implements Transformation by swapping the literals.
func (replace Replace) Reverse() (Transformation, error) {
	return Replace{beforeText: replace.afterText, afterText: replace.beforeText, fileMatcher: replace.fileMatcher}, nil
}

// Describe implements Transformation.
func (replace Replace) Describe() string {
	return fmt.Sprintf(replaceDescriptionTemplateConstant, replace.beforeText, replace.afterText)
}

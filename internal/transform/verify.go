package transform

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/temirov/reposync/internal/glob"
)

const (
	verifyDescriptionTemplateConstant = "verify match %q"
	verifyFailureTemplateConstant     = "%q does not match %q"
	verifyReadFailureTemplateConstant = "unable to read %q: %w"
)

// VerifyMatch asserts that every file selected by the glob matches a regular
// expression. It has no reverse: verification performs no tree mutation that
// could be undone, so reversing it is a validation error.
type VerifyMatch struct {
	expectedExpression *regexp.Regexp
	fileMatcher        glob.Glob
}

// NewVerifyMatch compiles the expression and constructs the verification. An
// empty matcher selects every file in the tree.
func NewVerifyMatch(expectedPattern string, fileMatcher glob.Glob) (VerifyMatch, error) {
	compiledExpression, compileError := regexp.Compile(expectedPattern)
	if compileError != nil {
		return VerifyMatch{}, compileError
	}
	if fileMatcher.IsEmpty() {
		fileMatcher = glob.EverythingGlob()
	}
	return VerifyMatch{expectedExpression: compiledExpression, fileMatcher: fileMatcher}, nil
}

// Transform implements Transformation.
func (verify VerifyMatch) Transform(executionContext context.Context, work *Work) error {
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
		if !verify.fileMatcher.Matches(filepath.ToSlash(relativePath)) {
			return nil
		}

		fileContent, readError := os.ReadFile(currentPath)
		if readError != nil {
			return fmt.Errorf(verifyReadFailureTemplateConstant, relativePath, readError)
		}
		if !verify.expectedExpression.Match(fileContent) {
			return fmt.Errorf(verifyFailureTemplateConstant, relativePath, verify.expectedExpression.String())
		}
		return nil
	})
	return walkError
}

// Reverse implements Transformation by reporting non-reversibility.
func (verify VerifyMatch) Reverse() (Transformation, error) {
	return nil, NonReversibleError{Description: verify.Describe()}
}

// Describe implements Transformation.
func (verify VerifyMatch) Describe() string {
	return fmt.Sprintf(verifyDescriptionTemplateConstant, verify.expectedExpression.String())
}

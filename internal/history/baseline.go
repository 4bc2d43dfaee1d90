package history

import (
	"github.com/temirov/reposync/internal/glob"
)

// BaselineVisitor finds the most recent ancestor changes relevant to a
// destination baseline when no explicit cross-repository label exists. A
// change is relevant when its touched file set is unknown or when any touched
// path falls under a root of the relevance glob. The visitor examines at most
// candidateLimit changes; the optional first-change skip does not count
// against the limit.
type BaselineVisitor struct {
	relevantFiles   glob.Glob
	remainingBudget int
	skipFirst       bool
	collected       []Change
}

// NewBaselineVisitor constructs a baseline visitor. candidateLimit bounds the
// number of examined candidates, not the number of results.
func NewBaselineVisitor(relevantFiles glob.Glob, candidateLimit int, skipFirst bool) *BaselineVisitor {
	return &BaselineVisitor{
		relevantFiles:   relevantFiles,
		remainingBudget: candidateLimit,
		skipFirst:       skipFirst,
	}
}

// Visit implements ChangesVisitor. Relevant changes accumulate in visit order,
// most recent first.
func (visitor *BaselineVisitor) Visit(change Change) VisitResult {
	if visitor.skipFirst {
		visitor.skipFirst = false
		return VisitContinue
	}

	visitor.remainingBudget--

	changedFiles, filesKnown := change.ChangedFiles()
	if !filesKnown || visitor.anyPathUnderRoots(changedFiles) {
		visitor.collected = append(visitor.collected, change)
	}

	if visitor.remainingBudget > 0 {
		return VisitContinue
	}
	return VisitTerminate
}

// Result returns the relevant changes found so far, most recent first. The
// first element is the nearest baseline candidate.
func (visitor *BaselineVisitor) Result() []Change {
	return append([]Change(nil), visitor.collected...)
}

func (visitor *BaselineVisitor) anyPathUnderRoots(changedFiles []string) bool {
	for _, changedFile := range changedFiles {
		if visitor.relevantFiles.RootsContain(changedFile) {
			return true
		}
	}
	return false
}

// LabelBaselineVisitor finds the most recent ancestor carrying a named label,
// skipping the starting revision itself. When the label appears several times
// in one change the last occurrence wins.
type LabelBaselineVisitor struct {
	startRevision Revision
	labelName     string
	foundValue    string
	foundRevision Revision
	located       bool
}

// NewLabelBaselineVisitor constructs a label-based baseline visitor.
func NewLabelBaselineVisitor(startRevision Revision, labelName string) *LabelBaselineVisitor {
	return &LabelBaselineVisitor{startRevision: startRevision, labelName: labelName}
}

// Visit implements ChangesVisitor.
func (visitor *LabelBaselineVisitor) Visit(change Change) VisitResult {
	if visitor.startRevision != nil && change.Revision().AsString() == visitor.startRevision.AsString() {
		return VisitContinue
	}

	labelValue, labelPresent := change.LastLabelValue(visitor.labelName)
	if !labelPresent {
		return VisitContinue
	}

	visitor.foundValue = labelValue
	visitor.foundRevision = change.Revision()
	visitor.located = true
	return VisitTerminate
}

// Baseline returns the located label value and the revision that carried it.
func (visitor *LabelBaselineVisitor) Baseline() (string, Revision, bool) {
	return visitor.foundValue, visitor.foundRevision, visitor.located
}

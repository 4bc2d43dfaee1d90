package transform

import (
	"github.com/temirov/reposync/internal/authoring"
	"github.com/temirov/reposync/internal/history"
)

// ProgressReporter receives pipeline progress messages. The pipeline only
// produces the strings; rendering belongs to the caller.
type ProgressReporter interface {
	Progress(message string)
}

type noopProgressReporter struct{}

func (noopProgressReporter) Progress(string) {}

// NoopProgressReporter returns a reporter that discards all messages.
func NoopProgressReporter() ProgressReporter {
	return noopProgressReporter{}
}

// Work is the mutable state threaded through one pipeline run: the working
// directory holding the checked-out tree, the commit message and author under
// construction, and labels accumulated for the eventual destination change.
// A Work value is exclusively owned by one pipeline execution.
type Work struct {
	workingDirectory string
	message          string
	author           authoring.Author
	labels           []history.Label
	reporter         ProgressReporter
}

// NewWork constructs a work context rooted at the supplied directory. A nil
// reporter is replaced with a no-op reporter.
func NewWork(workingDirectory string, reporter ProgressReporter) *Work {
	if reporter == nil {
		reporter = noopProgressReporter{}
	}
	return &Work{workingDirectory: workingDirectory, reporter: reporter}
}

// WorkingDirectory returns the root of the checked-out tree.
func (work *Work) WorkingDirectory() string {
	return work.workingDirectory
}

// Message returns the commit message under construction.
func (work *Work) Message() string {
	return work.message
}

// SetMessage replaces the commit message under construction.
func (work *Work) SetMessage(message string) {
	work.message = message
}

// Author returns the author under construction.
func (work *Work) Author() authoring.Author {
	return work.author
}

// SetAuthor replaces the author under construction.
func (work *Work) SetAuthor(author authoring.Author) {
	work.author = author
}

// AddLabel appends a label destined for the destination change.
func (work *Work) AddLabel(labelName string, labelValue string) {
	work.labels = append(work.labels, history.Label{Name: labelName, Value: labelValue})
}

// Labels returns the accumulated labels in insertion order.
func (work *Work) Labels() []history.Label {
	return append([]history.Label(nil), work.labels...)
}

// ReportProgress forwards a progress message to the configured reporter.
func (work *Work) ReportProgress(message string) {
	work.reporter.Progress(message)
}

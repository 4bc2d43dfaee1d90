package history

import (
	"strings"
	"time"

	"github.com/temirov/reposync/internal/authoring"
)

// Revision is an opaque, origin-defined commit identity. Revisions are never
// ordered generically; AsString supplies the stable form used for logging,
// cache keys, and last-migrated persistence.
type Revision interface {
	AsString() string
}

// StringRevision adapts a stored revision string back into a Revision. The
// string form must be one an origin adapter previously produced via AsString.
type StringRevision string

// AsString implements Revision.
func (revision StringRevision) AsString() string {
	return string(revision)
}

// Label is one detected "Name: value" entry from a change message. Labels form
// an ordered multimap: the same name may appear several times and order is
// preserved.
type Label struct {
	Name  string
	Value string
}

// Change is an immutable snapshot of one origin commit.
type Change struct {
	revision     Revision
	author       authoring.Author
	message      string
	timestamp    time.Time
	labels       []Label
	changedFiles []string
	filesKnown   bool
}

// NewChange constructs a Change whose touched file set is known.
func NewChange(revision Revision, author authoring.Author, message string, timestamp time.Time, labels []Label, changedFiles []string) Change {
	return Change{
		revision:     revision,
		author:       author,
		message:      message,
		timestamp:    timestamp,
		labels:       append([]Label(nil), labels...),
		changedFiles: append([]string(nil), changedFiles...),
		filesKnown:   true,
	}
}

// NewChangeWithUnknownFiles constructs a Change that must be assumed to have
// touched any file. Such changes are never skipped by file-based filtering.
func NewChangeWithUnknownFiles(revision Revision, author authoring.Author, message string, timestamp time.Time, labels []Label) Change {
	change := NewChange(revision, author, message, timestamp, labels, nil)
	change.changedFiles = nil
	change.filesKnown = false
	return change
}

// Revision returns the origin identity of the change.
func (change Change) Revision() Revision {
	return change.revision
}

// Author returns the origin author of the change.
func (change Change) Author() authoring.Author {
	return change.author
}

// Message returns the full change message.
func (change Change) Message() string {
	return change.message
}

// FirstLineMessage returns the summary line of the change message.
func (change Change) FirstLineMessage() string {
	newlineIndex := strings.IndexByte(change.message, '\n')
	if newlineIndex < 0 {
		return change.message
	}
	return change.message[:newlineIndex]
}

// Timestamp returns the author timestamp of the change.
func (change Change) Timestamp() time.Time {
	return change.timestamp
}

// Labels returns the detected labels in message order.
func (change Change) Labels() []Label {
	return append([]Label(nil), change.labels...)
}

// LastLabelValue returns the value of the final occurrence of the named label.
func (change Change) LastLabelValue(labelName string) (string, bool) {
	for labelIndex := len(change.labels) - 1; labelIndex >= 0; labelIndex-- {
		if change.labels[labelIndex].Name == labelName {
			return change.labels[labelIndex].Value, true
		}
	}
	return "", false
}

// ChangedFiles returns the touched file paths and whether the set is known.
// When known is false the change could have touched anything.
func (change Change) ChangedFiles() ([]string, bool) {
	if !change.filesKnown {
		return nil, false
	}
	return append([]string(nil), change.changedFiles...), true
}

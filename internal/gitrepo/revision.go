package gitrepo

// GitRevision is a resolved git commit identity.
type GitRevision struct {
	sha string
}

// NewGitRevision wraps a commit sha.
func NewGitRevision(sha string) GitRevision {
	return GitRevision{sha: sha}
}

// AsString returns the commit sha.
func (revision GitRevision) AsString() string {
	return revision.sha
}

// Package history models origin revision history: the opaque Revision
// identity, the immutable Change snapshot of one origin commit, the visitor
// protocol used to walk history newest-to-oldest, and the baseline resolver
// that finds the most recent ancestors touching a set of relevant files.
package history

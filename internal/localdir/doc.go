// Package localdir adapts a plain directory to the workflow destination
// capability. Folder destinations have no commit history of their own, so
// the last-migrated marker lives in the statestore database.
package localdir

// Package statestore persists the last migrated origin revision per migration
// identifier. It backs destinations that have no native place to record
// cross-repository markers, such as plain folder destinations.
package statestore

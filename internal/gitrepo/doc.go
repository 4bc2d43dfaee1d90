// Package gitrepo adapts git repositories to the workflow origin and
// destination capabilities.
//
// GitOrigin reads history and materializes trees through a long-lived local
// clone; GitDestination writes transformed trees as commits whose trailers
// carry the last-migrated marker. Both issue git commands through execshell.
package gitrepo

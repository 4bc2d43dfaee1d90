// Package cache addresses the shared on-disk store of remote repository
// clones. Keys are deterministic functions of configuration identity and URL:
// migrations sharing a key serialize their access to the cached clone while
// migrations with distinct keys proceed fully in parallel.
package cache

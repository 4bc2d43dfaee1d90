// Package glob implements the include/exclude path predicate used to scope
// migrations to a subset of repository files. A path matches when it satisfies
// at least one include pattern and no exclude pattern. The package also
// computes the minimal set of directory roots covering the include patterns,
// which origins use to narrow fetches and the baseline resolver uses for its
// containment test.
package glob

package glob

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	invalidPatternMessageTemplateConstant = "invalid glob pattern %q: %w"
	pathSeparatorConstant                 = "/"
	defaultIncludePatternConstant         = "**"
)

// Glob is an immutable include/exclude path predicate.
type Glob struct {
	includePatterns []string
	excludePatterns []string
}

// NewGlob validates the supplied patterns and constructs a Glob. Pattern
// validation failures name the offending pattern.
func NewGlob(includePatterns []string, excludePatterns []string) (Glob, error) {
	duplicatedIncludes := append([]string(nil), includePatterns...)
	duplicatedExcludes := append([]string(nil), excludePatterns...)

	for _, patternGroup := range [][]string{duplicatedIncludes, duplicatedExcludes} {
		for _, pattern := range patternGroup {
			if !doublestar.ValidatePattern(pattern) {
				return Glob{}, fmt.Errorf(invalidPatternMessageTemplateConstant, pattern, doublestar.ErrBadPattern)
			}
		}
	}

	return Glob{includePatterns: duplicatedIncludes, excludePatterns: duplicatedExcludes}, nil
}

// MustGlob constructs a Glob and panics on invalid patterns. Intended for
// static patterns in tests and defaults.
func MustGlob(includePatterns []string, excludePatterns []string) Glob {
	constructed, constructionError := NewGlob(includePatterns, excludePatterns)
	if constructionError != nil {
		panic(constructionError)
	}
	return constructed
}

// EverythingGlob matches every path.
func EverythingGlob() Glob {
	return Glob{includePatterns: []string{defaultIncludePatternConstant}}
}

// IsEmpty reports whether the glob carries no include patterns.
func (globInstance Glob) IsEmpty() bool {
	return len(globInstance.includePatterns) == 0
}

// IncludePatterns returns a copy of the include pattern list.
func (globInstance Glob) IncludePatterns() []string {
	return append([]string(nil), globInstance.includePatterns...)
}

// ExcludePatterns returns a copy of the exclude pattern list.
func (globInstance Glob) ExcludePatterns() []string {
	return append([]string(nil), globInstance.excludePatterns...)
}

// Matches reports whether the candidate path satisfies at least one include
// pattern and no exclude pattern. Paths use forward slashes.
func (globInstance Glob) Matches(candidatePath string) bool {
	if !matchesAnyPattern(globInstance.includePatterns, candidatePath) {
		return false
	}
	return !matchesAnyPattern(globInstance.excludePatterns, candidatePath)
}

// Roots calculates the minimal list of directories that recursively contain
// every path an include pattern could match. The segment holding the first
// metacharacter and everything after it are dropped, as is the trailing
// segment of a fully literal pattern; an include that reaches the repository
// top collapses the result to the single empty root.
func (globInstance Glob) Roots() []string {
	collectedRoots := make([]string, 0, len(globInstance.includePatterns))

	for _, includePattern := range globInstance.includePatterns {
		literalComponents := []string{}
		for _, pathComponent := range strings.Split(includePattern, pathSeparatorConstant) {
			literalComponents = append(literalComponents, unescapeComponent(pathComponent))
			if containsMetaCharacter(pathComponent) {
				break
			}
		}
		literalComponents = literalComponents[:len(literalComponents)-1]
		if len(literalComponents) == 0 {
			return []string{""}
		}
		collectedRoots = append(collectedRoots, strings.Join(literalComponents, pathSeparatorConstant))
	}

	sort.Strings(collectedRoots)
	deduplicatedRoots := collectedRoots[:0]
	for _, candidateRoot := range collectedRoots {
		if len(deduplicatedRoots) > 0 {
			lastRoot := deduplicatedRoots[len(deduplicatedRoots)-1]
			if candidateRoot == lastRoot || strings.HasPrefix(candidateRoot, lastRoot+pathSeparatorConstant) {
				continue
			}
		}
		deduplicatedRoots = append(deduplicatedRoots, candidateRoot)
	}

	return append([]string(nil), deduplicatedRoots...)
}

// RootsContain reports whether the candidate path lives under any root of the
// glob. This is a containment test, not a full match: excluded paths under an
// included root still count.
func (globInstance Glob) RootsContain(candidatePath string) bool {
	for _, rootDirectory := range globInstance.Roots() {
		if rootDirectory == "" {
			return true
		}
		if candidatePath == rootDirectory || strings.HasPrefix(candidatePath, rootDirectory+pathSeparatorConstant) {
			return true
		}
	}
	return false
}

func matchesAnyPattern(patterns []string, candidatePath string) bool {
	for _, pattern := range patterns {
		if doublestar.MatchUnvalidated(pattern, candidatePath) {
			return true
		}
	}
	return false
}

func containsMetaCharacter(pathComponent string) bool {
	characterIndex := 0
	for characterIndex < len(pathComponent) {
		switch pathComponent[characterIndex] {
		case '*', '{', '[', '?':
			return true
		case '\\':
			characterIndex++
		}
		characterIndex++
	}
	return false
}

func unescapeComponent(pathComponent string) string {
	var unescaped strings.Builder
	characterIndex := 0
	for characterIndex < len(pathComponent) {
		if pathComponent[characterIndex] == '\\' && characterIndex+1 < len(pathComponent) {
			characterIndex++
		}
		unescaped.WriteByte(pathComponent[characterIndex])
		characterIndex++
	}
	return unescaped.String()
}

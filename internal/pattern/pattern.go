// Package pattern compiles gitignore-style rules and evaluates them
// against slash-separated relative paths. Evaluation is a pure function
// of the compiled set: the last pattern in sequence order that matches a
// path decides, so later entries (negations included) override earlier
// ones.
package pattern

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/temirov/contextify/internal/types"
)

const (
	// negationPrefix marks a pattern that un-matches previously matched paths.
	negationPrefix = "!"
	// rootAnchorPrefix binds a pattern to the scan root.
	rootAnchorPrefix = "/"
	// directorySuffix restricts a pattern to directories and their contents.
	directorySuffix = "/"
	// commentPrefix marks pattern-source lines that carry no rule.
	commentPrefix = "#"
	// segmentSeparator splits patterns and candidate paths into segments.
	segmentSeparator = "/"
	// doubleStarSegment spans any number of path segments.
	doubleStarSegment = "**"
)

// Pattern is a single compiled rule. Patterns are immutable once compiled.
type Pattern struct {
	// Raw preserves the pattern text as written in its source.
	Raw string
	// Anchored indicates a leading "/" bound the pattern to the scan root.
	Anchored bool
	// DirectoryOnly indicates a trailing "/" restricted the pattern to
	// directories and the paths beneath them.
	DirectoryOnly bool
	// Negated indicates a leading "!" turns a match into an un-match.
	Negated bool
	// segments holds the slash-split glob segments evaluated against path segments.
	segments []string
}

// Set is an ordered sequence of compiled patterns. Order is significant.
type Set struct {
	patterns []Pattern
}

// Compile parses raw pattern lines into a Set. Blank lines and comment
// lines are skipped. A malformed glob yields an error naming the
// offending pattern so configuration failures surface before traversal.
func Compile(rawPatterns []string) (Set, error) {
	compiledPatterns := make([]Pattern, 0, len(rawPatterns))
	for _, rawPattern := range rawPatterns {
		trimmedPattern := strings.TrimSpace(rawPattern)
		if trimmedPattern == "" || strings.HasPrefix(trimmedPattern, commentPrefix) {
			continue
		}

		compiledPattern := Pattern{Raw: trimmedPattern}
		remainingText := trimmedPattern
		if strings.HasPrefix(remainingText, negationPrefix) {
			compiledPattern.Negated = true
			remainingText = strings.TrimPrefix(remainingText, negationPrefix)
		}
		if strings.HasPrefix(remainingText, rootAnchorPrefix) {
			compiledPattern.Anchored = true
			remainingText = strings.TrimPrefix(remainingText, rootAnchorPrefix)
		}
		if strings.HasSuffix(remainingText, directorySuffix) {
			compiledPattern.DirectoryOnly = true
			remainingText = strings.TrimSuffix(remainingText, directorySuffix)
		}
		if remainingText == "" {
			continue
		}

		compiledPattern.segments = strings.Split(remainingText, segmentSeparator)
		for _, globSegment := range compiledPattern.segments {
			if globSegment == doubleStarSegment {
				continue
			}
			if _, matchError := filepath.Match(globSegment, ""); matchError != nil {
				return Set{}, fmt.Errorf("invalid pattern %q: %w", trimmedPattern, matchError)
			}
		}
		compiledPatterns = append(compiledPatterns, compiledPattern)
	}
	return Set{patterns: compiledPatterns}, nil
}

// MustCompile is a Compile variant for pattern literals known to be valid.
func MustCompile(rawPatterns []string) Set {
	compiledSet, compileError := Compile(rawPatterns)
	if compileError != nil {
		panic(compileError)
	}
	return compiledSet
}

// IsEmpty reports whether the set holds no patterns.
func (patternSet Set) IsEmpty() bool {
	return len(patternSet.patterns) == 0
}

// Len returns the number of compiled patterns.
func (patternSet Set) Len() int {
	return len(patternSet.patterns)
}

// Append returns a new set with the additional raw patterns compiled and
// placed after the existing ones, so they participate in last-match-wins
// evaluation as later entries.
func (patternSet Set) Append(rawPatterns []string) (Set, error) {
	appendedSet, compileError := Compile(rawPatterns)
	if compileError != nil {
		return Set{}, compileError
	}
	combinedPatterns := make([]Pattern, 0, len(patternSet.patterns)+len(appendedSet.patterns))
	combinedPatterns = append(combinedPatterns, patternSet.patterns...)
	combinedPatterns = append(combinedPatterns, appendedSet.patterns...)
	return Set{patterns: combinedPatterns}, nil
}

// Matches reports whether the relative path matches the set. The verdict
// belongs to the last pattern in sequence order whose rule matches: a
// trailing negation un-matches paths caught by earlier rules.
func (patternSet Set) Matches(relativePath string, isDirectory bool) bool {
	pathSegments := splitPath(relativePath)
	if len(pathSegments) == 0 {
		return false
	}
	matched := false
	for _, candidatePattern := range patternSet.patterns {
		if candidatePattern.matches(pathSegments, isDirectory) {
			matched = !candidatePattern.Negated
		}
	}
	return matched
}

// matches evaluates one pattern against the path segments. An anchored
// pattern may only start at the scan root; an unanchored pattern may
// start at any segment boundary. A pattern that consumes a proper prefix
// of the path has matched an ancestor directory, which excludes the
// contents beneath it.
func (compiledPattern Pattern) matches(pathSegments []string, isDirectory bool) bool {
	lastStartOffset := 0
	if !compiledPattern.Anchored {
		lastStartOffset = len(pathSegments) - 1
	}
	for startOffset := 0; startOffset <= lastStartOffset; startOffset++ {
		matchedProperPrefix, matchedFullPath := matchSegments(compiledPattern.segments, pathSegments[startOffset:])
		if matchedFullPath && (!compiledPattern.DirectoryOnly || isDirectory) {
			return true
		}
		if matchedProperPrefix {
			return true
		}
	}
	return false
}

// matchSegments matches glob segments against path segments from the
// front. matchedProperPrefix reports a match that consumed fewer segments
// than the path holds; matchedFullPath reports a match that consumed the
// entire path. The doubleStarSegment spans zero or more path segments.
func matchSegments(globSegments []string, pathSegments []string) (matchedProperPrefix bool, matchedFullPath bool) {
	if len(globSegments) == 0 {
		return len(pathSegments) > 0, len(pathSegments) == 0
	}
	if globSegments[0] == doubleStarSegment {
		for skipCount := 0; skipCount <= len(pathSegments); skipCount++ {
			properPrefix, fullPath := matchSegments(globSegments[1:], pathSegments[skipCount:])
			matchedProperPrefix = matchedProperPrefix || properPrefix
			matchedFullPath = matchedFullPath || fullPath
		}
		return matchedProperPrefix, matchedFullPath
	}
	if len(pathSegments) == 0 {
		return false, false
	}
	segmentMatched, matchError := filepath.Match(globSegments[0], pathSegments[0])
	if matchError != nil || !segmentMatched {
		return false, false
	}
	return matchSegments(globSegments[1:], pathSegments[1:])
}

// splitPath normalizes a relative path to forward slashes and splits it
// into non-empty segments.
func splitPath(relativePath string) []string {
	normalizedPath := strings.ReplaceAll(relativePath, "\\", segmentSeparator)
	normalizedPath = strings.Trim(normalizedPath, segmentSeparator)
	if normalizedPath == "" || normalizedPath == "." {
		return nil
	}
	return strings.Split(normalizedPath, segmentSeparator)
}

// Filter combines an exclusion blacklist with an optional whitelist
// restriction. Blacklist and whitelist are independent sets.
type Filter struct {
	Blacklist Set
	Whitelist Set
}

// Verdict decides inclusion for a path: excluded when the blacklist
// matches, or when a non-empty whitelist fails to match. The whitelist
// acts as an additional restriction on blacklist survivors, never as a
// union.
func (pathFilter Filter) Verdict(relativePath string, isDirectory bool) types.Verdict {
	if pathFilter.Blacklist.Matches(relativePath, isDirectory) {
		return types.VerdictExcluded
	}
	if !pathFilter.Whitelist.IsEmpty() && !pathFilter.Whitelist.Matches(relativePath, isDirectory) {
		return types.VerdictExcluded
	}
	return types.VerdictIncluded
}

// ShouldPrune reports whether traversal may skip a directory subtree
// without reading it. With an active whitelist pruning is disabled
// entirely: a nested file could still be whitelisted even though its
// ancestor directory is blacklisted.
func (pathFilter Filter) ShouldPrune(relativeDirectoryPath string) bool {
	if !pathFilter.Whitelist.IsEmpty() {
		return false
	}
	return pathFilter.Blacklist.Matches(relativeDirectoryPath, true)
}

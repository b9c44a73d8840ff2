// Package utils contains general helper functions used across the contextify tool.
package utils

import (
	"path/filepath"
)

// Shared file name constants.
const (
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

// Logger message constants used by the application entry point.
const (
	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal execution errors.
	ApplicationExecutionFailedMessage = "application execution failed"
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// DeduplicatePatternsKeepingLast removes duplicate patterns while keeping
// each pattern at its final position. Under last-match-wins evaluation the
// last occurrence is the one that decides, so dropping the earlier copies
// never changes a verdict; dropping a later copy can.
func DeduplicatePatternsKeepingLast(patterns []string) []string {
	lastIndexByPattern := make(map[string]int, len(patterns))
	for patternIndex, pattern := range patterns {
		lastIndexByPattern[pattern] = patternIndex
	}
	result := make([]string, 0, len(lastIndexByPattern))
	for patternIndex, pattern := range patterns {
		if lastIndexByPattern[pattern] == patternIndex {
			result = append(result, pattern)
		}
	}
	return result
}

// RelativePathOrSelf calculates the relative path from root to fullPath.
// Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relativeError := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relativeError != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

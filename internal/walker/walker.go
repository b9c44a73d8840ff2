// Package walker traverses root paths and produces the deterministic
// snapshot of included files that aggregation consumes.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/temirov/contextify/internal/pattern"
	"github.com/temirov/contextify/internal/types"
)

const (
	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	// errorStatFormat reports failure to retrieve file statistics.
	errorStatFormat = "stat failed for '%s': %w"
	// errorNoValidRoots indicates that no root path survived validation.
	errorNoValidRoots = "no valid root paths"
)

// InvalidRootError reports a declared root path that does not exist or is
// not accessible. It aborts the run before traversal.
type InvalidRootError struct {
	Path string
	Err  error
}

// Error formats the invalid root description.
func (invalidRoot *InvalidRootError) Error() string {
	if invalidRoot.Err != nil {
		return fmt.Sprintf("root path '%s' is not accessible: %v", invalidRoot.Path, invalidRoot.Err)
	}
	return fmt.Sprintf("root path '%s' does not exist", invalidRoot.Path)
}

// Unwrap exposes the underlying filesystem error.
func (invalidRoot *InvalidRootError) Unwrap() error { return invalidRoot.Err }

// Options configures one traversal run.
type Options struct {
	// Roots lists the file or directory paths that seed traversal.
	Roots []string
	// Filter decides inclusion for every encountered path.
	Filter pattern.Filter
	// ExcludeAbsolutePath removes the output destination from its own
	// snapshot. The comparison is absolute-path equality, not pattern
	// matching.
	ExcludeAbsolutePath string
}

// Walk traverses the configured roots depth-first and returns the sorted
// snapshot of included files. Directories matched by the blacklist are
// pruned without descending unless a whitelist is active. Ordering is
// lexicographic by display path, independent of filesystem iteration
// order.
func Walk(options Options) (types.ProjectSnapshot, error) {
	validatedRoots, validationError := ResolveAndValidateRoots(options.Roots)
	if validationError != nil {
		return types.ProjectSnapshot{}, validationError
	}

	displayRoot := commonAncestorDirectory(validatedRoots)
	excludedAbsolute := filepath.Clean(options.ExcludeAbsolutePath)

	collected := make(map[string]types.FileEntry)
	excludedCount := 0

	recordFile := func(absolutePath string, scanRelativePath string) {
		// The output destination is a visited file, so it joins the
		// excluded tally even though no pattern matched it.
		if options.ExcludeAbsolutePath != "" && absolutePath == excludedAbsolute {
			excludedCount++
			return
		}
		if options.Filter.Verdict(scanRelativePath, false) == types.VerdictExcluded {
			excludedCount++
			return
		}
		collected[absolutePath] = types.FileEntry{
			RelativePath: displayPath(absolutePath, displayRoot),
			AbsolutePath: absolutePath,
			Verdict:      types.VerdictIncluded,
		}
	}

	for _, rootInformation := range validatedRoots {
		if !rootInformation.IsDir {
			recordFile(rootInformation.AbsolutePath, displayPath(rootInformation.AbsolutePath, displayRoot))
			continue
		}
		walkError := walkDirectoryRoot(rootInformation.AbsolutePath, options, validatedRoots, &excludedCount, recordFile)
		if walkError != nil {
			return types.ProjectSnapshot{}, walkError
		}
	}

	entries := make([]types.FileEntry, 0, len(collected))
	for _, fileEntry := range collected {
		entries = append(entries, fileEntry)
	}
	sort.Slice(entries, func(firstIndex, secondIndex int) bool {
		return entries[firstIndex].RelativePath < entries[secondIndex].RelativePath
	})

	return types.ProjectSnapshot{
		DisplayRoot:   displayRoot,
		Entries:       entries,
		ExcludedCount: excludedCount,
	}, nil
}

// walkDirectoryRoot walks a single directory root depth-first, consulting
// the filter on each directory before descending.
func walkDirectoryRoot(
	rootPath string,
	options Options,
	validatedRoots []types.ValidatedPath,
	excludedCount *int,
	recordFile func(absolutePath string, scanRelativePath string),
) error {
	return filepath.WalkDir(rootPath, func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if currentPath == rootPath {
				return &InvalidRootError{Path: rootPath, Err: walkError}
			}
			// Unreadable nested entries are skipped, not fatal.
			if directoryEntry != nil && directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if currentPath == rootPath {
			return nil
		}

		scanRelativePath := scanRelative(rootPath, currentPath)

		if directoryEntry.IsDir() {
			if options.Filter.ShouldPrune(scanRelativePath) {
				return fs.SkipDir
			}
			return nil
		}

		if directoryEntry.Type()&fs.ModeSymlink != 0 {
			resolvedTarget, targetIsFile := resolveSymlinkTarget(currentPath)
			if !targetIsFile || !withinAnyRoot(resolvedTarget, validatedRoots) {
				*excludedCount++
				return nil
			}
			recordFile(filepath.Clean(currentPath), scanRelativePath)
			return nil
		}

		if !directoryEntry.Type().IsRegular() {
			return nil
		}
		recordFile(filepath.Clean(currentPath), scanRelativePath)
		return nil
	})
}

// ResolveAndValidateRoots converts input paths to absolute form, verifies
// their existence, and removes duplicates while preserving order.
func ResolveAndValidateRoots(inputPaths []string) ([]types.ValidatedPath, error) {
	seenPaths := make(map[string]struct{})
	var validatedRoots []types.ValidatedPath
	for _, inputPath := range inputPaths {
		absolutePath, absolutePathError := filepath.Abs(inputPath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, alreadySeen := seenPaths[cleanPath]; alreadySeen {
			continue
		}
		fileInformation, statError := os.Stat(cleanPath)
		if statError != nil {
			if os.IsNotExist(statError) {
				return nil, &InvalidRootError{Path: inputPath}
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, statError)
		}
		seenPaths[cleanPath] = struct{}{}
		validatedRoots = append(validatedRoots, types.ValidatedPath{
			AbsolutePath: cleanPath,
			IsDir:        fileInformation.IsDir(),
		})
	}
	if len(validatedRoots) == 0 {
		return nil, fmt.Errorf(errorNoValidRoots)
	}
	return validatedRoots, nil
}

// commonAncestorDirectory returns the deepest directory containing every
// validated root, or the empty string when the roots share no ancestor
// (distinct volumes). File roots contribute their parent directory.
func commonAncestorDirectory(validatedRoots []types.ValidatedPath) string {
	var ancestorSegments []string
	ancestorVolume := ""
	for rootIndex, rootInformation := range validatedRoots {
		rootDirectory := rootInformation.AbsolutePath
		if !rootInformation.IsDir {
			rootDirectory = filepath.Dir(rootDirectory)
		}
		currentVolume := filepath.VolumeName(rootDirectory)
		currentSegments := splitAbsolute(rootDirectory)
		if rootIndex == 0 {
			ancestorVolume = currentVolume
			ancestorSegments = currentSegments
			continue
		}
		if currentVolume != ancestorVolume {
			return ""
		}
		sharedLength := 0
		for sharedLength < len(ancestorSegments) && sharedLength < len(currentSegments) &&
			ancestorSegments[sharedLength] == currentSegments[sharedLength] {
			sharedLength++
		}
		ancestorSegments = ancestorSegments[:sharedLength]
	}
	return ancestorVolume + string(os.PathSeparator) + filepath.Join(ancestorSegments...)
}

// splitAbsolute breaks an absolute path into its non-empty segments,
// excluding the volume name.
func splitAbsolute(absolutePath string) []string {
	trimmedPath := strings.TrimPrefix(absolutePath, filepath.VolumeName(absolutePath))
	normalizedPath := filepath.ToSlash(trimmedPath)
	var segments []string
	for _, pathSegment := range strings.Split(normalizedPath, "/") {
		if pathSegment != "" {
			segments = append(segments, pathSegment)
		}
	}
	return segments
}

// displayPath computes the forward-slash path shown in the rendered
// document. Paths outside the display root, or runs without one, fall
// back to the absolute form so the output stays unambiguous.
func displayPath(absolutePath string, displayRoot string) string {
	if displayRoot == "" {
		return filepath.ToSlash(absolutePath)
	}
	relativePath, relativeError := filepath.Rel(displayRoot, absolutePath)
	if relativeError != nil || strings.HasPrefix(relativePath, "..") {
		return filepath.ToSlash(absolutePath)
	}
	return filepath.ToSlash(relativePath)
}

// scanRelative computes the path of currentPath relative to the walked
// root for pattern evaluation, in forward-slash form.
func scanRelative(rootPath string, currentPath string) string {
	relativePath, relativeError := filepath.Rel(rootPath, currentPath)
	if relativeError != nil {
		return filepath.ToSlash(currentPath)
	}
	return filepath.ToSlash(relativePath)
}

// resolveSymlinkTarget follows a symbolic link and reports whether it
// ends at a regular file. Cycles and dangling links resolve to false.
func resolveSymlinkTarget(linkPath string) (string, bool) {
	resolvedPath, resolveError := filepath.EvalSymlinks(linkPath)
	if resolveError != nil {
		return "", false
	}
	targetInformation, statError := os.Stat(resolvedPath)
	if statError != nil || !targetInformation.Mode().IsRegular() {
		return "", false
	}
	return filepath.Clean(resolvedPath), true
}

// withinAnyRoot reports whether the absolute path lies under one of the
// declared roots. Symlink targets outside every root are excluded.
func withinAnyRoot(absolutePath string, validatedRoots []types.ValidatedPath) bool {
	for _, rootInformation := range validatedRoots {
		rootPath := rootInformation.AbsolutePath
		if !rootInformation.IsDir {
			rootPath = filepath.Dir(rootPath)
		}
		if absolutePath == rootPath || strings.HasPrefix(absolutePath, rootPath+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

// Package types defines every cross-package data structure used by the contextify CLI.
package types

import "time"

// Verdict is the final inclusion decision for a traversed path.
type Verdict int

const (
	// VerdictIncluded marks a path that survives blacklist and whitelist filtering.
	VerdictIncluded Verdict = iota
	// VerdictExcluded marks a path rejected by filtering.
	VerdictExcluded
)

// FileEntry is one path observed during traversal.
type FileEntry struct {
	// RelativePath is the forward-slash display path relative to the display root.
	RelativePath string
	// AbsolutePath is the cleaned absolute filesystem path.
	AbsolutePath string
	// IsDirectory reports whether the entry is a directory.
	IsDirectory bool
	// Verdict is the inclusion decision assigned during traversal.
	Verdict Verdict
}

// ProjectSnapshot is the deterministic result of one traversal run.
// Entries are sorted lexicographically by RelativePath and all carry
// VerdictIncluded; excluded paths survive only as a counter.
type ProjectSnapshot struct {
	// DisplayRoot is the directory all relative paths are computed against.
	// Empty when the roots share no common ancestor.
	DisplayRoot string
	// Entries lists the included files in sorted order.
	Entries []FileEntry
	// ExcludedCount is the number of files rejected during traversal.
	ExcludedCount int
}

// ContentBlock pairs a snapshot entry with the bytes read for it. A
// non-empty ReadError replaces Content with a diagnostic line in the
// rendered document.
type ContentBlock struct {
	Entry     FileEntry
	Content   string
	ReadError string
}

// Statistics aggregates the counters of a single capture run. Values are
// accumulated during aggregation and frozen by the collector's Finalize.
type Statistics struct {
	IncludedFiles   int
	ExcludedFiles   int
	ReadErrors      int
	TotalLines      int
	TotalCharacters int
	EstimatedTokens int
	TokenModel      string
	Elapsed         time.Duration
}

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}

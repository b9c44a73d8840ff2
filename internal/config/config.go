// Package config loads pattern sources and application defaults. The
// core packages never read environment or home-directory state; this
// boundary turns files and flags into plain pattern lists.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/contextify/internal/utils"
)

// File names recognized by the pattern-source loader.
const (
	// LocalBlacklistFileName is the project-level blacklist file.
	LocalBlacklistFileName = ".blacklist"
	// LocalWhitelistFileName is the project-level whitelist file.
	LocalWhitelistFileName = ".whitelist"
	// GlobalConfigDirectoryName is the per-user configuration directory under the home directory.
	GlobalConfigDirectoryName = ".contextify"
	// GlobalBlacklistFileName is the blacklist file inside the global configuration directory.
	GlobalBlacklistFileName = "blacklist"
	// GlobalWhitelistFileName is the whitelist file inside the global configuration directory.
	GlobalWhitelistFileName = "whitelist"
	// commentPrefix marks list-file lines without a pattern.
	commentPrefix = "#"
)

// ConfigurationError reports a malformed or unreadable pattern source.
// It aborts the run before traversal.
type ConfigurationError struct {
	Source string
	Err    error
}

// Error formats the configuration failure description.
func (configurationError *ConfigurationError) Error() string {
	return fmt.Sprintf("reading pattern source '%s': %v", configurationError.Source, configurationError.Err)
}

// Unwrap exposes the underlying error.
func (configurationError *ConfigurationError) Unwrap() error { return configurationError.Err }

// LoadPatternListFile reads a pattern list file (one pattern per line,
// blank lines and "#" comments skipped) and returns the patterns in file
// order. A missing or unreadable file is a ConfigurationError.
func LoadPatternListFile(listFilePath string) ([]string, error) {
	fileHandle, openError := os.Open(listFilePath)
	if openError != nil {
		return nil, &ConfigurationError{Source: listFilePath, Err: openError}
	}
	defer fileHandle.Close()

	var loadedPatterns []string
	lineScanner := bufio.NewScanner(fileHandle)
	for lineScanner.Scan() {
		trimmedLine := strings.TrimSpace(lineScanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		loadedPatterns = append(loadedPatterns, trimmedLine)
	}
	if scanError := lineScanner.Err(); scanError != nil {
		return nil, &ConfigurationError{Source: listFilePath, Err: scanError}
	}
	return loadedPatterns, nil
}

// LoadOptionalPatternListFile behaves like LoadPatternListFile but
// tolerates a missing file, returning no patterns.
func LoadOptionalPatternListFile(listFilePath string) ([]string, error) {
	if _, statError := os.Stat(listFilePath); os.IsNotExist(statError) {
		return nil, nil
	}
	return LoadPatternListFile(listFilePath)
}

// LoadGitIgnorePatterns reads the .gitignore file of the given directory.
// A missing file yields no patterns; any other failure is a
// ConfigurationError.
func LoadGitIgnorePatterns(directoryPath string) ([]string, error) {
	return LoadOptionalPatternListFile(filepath.Join(directoryPath, utils.GitIgnoreFileName))
}

// ResolveListFilePath selects a pattern list file: an explicit path wins,
// then an existing project-level file in the working directory, then the
// global file under the home directory. The returned path may not exist.
func ResolveListFilePath(explicitPath string, workingDirectory string, localFileName string, globalFileName string) string {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) || workingDirectory == "" {
			return explicitPath
		}
		return filepath.Join(workingDirectory, explicitPath)
	}
	localPath := filepath.Join(workingDirectory, localFileName)
	if _, statError := os.Stat(localPath); statError == nil {
		return localPath
	}
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil || homeDirectory == "" {
		return localPath
	}
	return filepath.Join(homeDirectory, GlobalConfigDirectoryName, globalFileName)
}

// ParseInlinePatterns splits a comma-separated flag value into trimmed,
// non-empty patterns.
func ParseInlinePatterns(inlineValue string) []string {
	if strings.TrimSpace(inlineValue) == "" {
		return nil
	}
	var parsedPatterns []string
	for _, rawPattern := range strings.Split(inlineValue, ",") {
		trimmedPattern := strings.TrimSpace(rawPattern)
		if trimmedPattern != "" {
			parsedPatterns = append(parsedPatterns, trimmedPattern)
		}
	}
	return parsedPatterns
}

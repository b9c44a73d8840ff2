package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/contextify/internal/utils"
)

// globalDirectoryPermissions are the mode bits of the created global configuration directory.
const globalDirectoryPermissions = 0o755

// globalFilePermissions are the mode bits of created global list files.
const globalFilePermissions = 0o644

// gitignoreSectionHeader precedes .gitignore content copied into a seeded blacklist.
const gitignoreSectionHeader = "# From " + utils.GitIgnoreFileName

// defaultBlacklistPatterns seed a fresh global blacklist.
var defaultBlacklistPatterns = []string{
	utils.GitDirectoryName + "/",
	".DS_Store",
	"node_modules/",
	"vendor/",
	"target/",
	"__pycache__/",
	"*.lock",
	"project_contents.txt",
}

// defaultWhitelistPatterns seed a fresh global whitelist.
var defaultWhitelistPatterns = []string{
	"*.go",
	"*.rs",
	"*.md",
	"*.toml",
	"*.yaml",
}

// Locations lists every configuration file the tool consults.
type Locations struct {
	LocalBlacklist  string
	LocalWhitelist  string
	LocalSettings   string
	GlobalBlacklist string
	GlobalWhitelist string
	GlobalSettings  string
}

// ResolveLocations computes the local and global configuration paths for
// the show-locations command.
func ResolveLocations(workingDirectory string) (Locations, error) {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return Locations{}, fmt.Errorf("determine home directory: %w", homeError)
	}
	globalDirectory := filepath.Join(homeDirectory, GlobalConfigDirectoryName)
	return Locations{
		LocalBlacklist:  filepath.Join(workingDirectory, LocalBlacklistFileName),
		LocalWhitelist:  filepath.Join(workingDirectory, LocalWhitelistFileName),
		LocalSettings:   filepath.Join(workingDirectory, SettingsFileName),
		GlobalBlacklist: filepath.Join(globalDirectory, GlobalBlacklistFileName),
		GlobalWhitelist: filepath.Join(globalDirectory, GlobalWhitelistFileName),
		GlobalSettings:  filepath.Join(globalDirectory, GlobalSettingsFileName),
	}, nil
}

// InitializeGlobalFiles creates the global configuration directory and
// seeds the blacklist and whitelist files that do not exist yet. The
// blacklist seed copies an existing project-level file when present,
// falling back to the defaults plus the working directory's .gitignore
// content. Existing files are never overwritten. The created paths are
// returned.
func InitializeGlobalFiles(workingDirectory string) ([]string, error) {
	resolvedLocations, locationsError := ResolveLocations(workingDirectory)
	if locationsError != nil {
		return nil, locationsError
	}
	globalDirectory := filepath.Dir(resolvedLocations.GlobalBlacklist)
	if makeDirectoryError := os.MkdirAll(globalDirectory, globalDirectoryPermissions); makeDirectoryError != nil {
		return nil, fmt.Errorf("create configuration directory %s: %w", globalDirectory, makeDirectoryError)
	}

	var createdPaths []string

	if _, statError := os.Stat(resolvedLocations.GlobalBlacklist); os.IsNotExist(statError) {
		blacklistContent := seedContent(resolvedLocations.LocalBlacklist, defaultBlacklistPatterns)
		if gitignoreContent := readSeedFile(filepath.Join(workingDirectory, utils.GitIgnoreFileName)); gitignoreContent != "" {
			blacklistContent += "\n" + gitignoreSectionHeader + "\n" + gitignoreContent
		}
		if writeError := os.WriteFile(resolvedLocations.GlobalBlacklist, []byte(blacklistContent), globalFilePermissions); writeError != nil {
			return createdPaths, fmt.Errorf("write %s: %w", resolvedLocations.GlobalBlacklist, writeError)
		}
		createdPaths = append(createdPaths, resolvedLocations.GlobalBlacklist)
	}

	if _, statError := os.Stat(resolvedLocations.GlobalWhitelist); os.IsNotExist(statError) {
		whitelistContent := seedContent(resolvedLocations.LocalWhitelist, defaultWhitelistPatterns)
		if writeError := os.WriteFile(resolvedLocations.GlobalWhitelist, []byte(whitelistContent), globalFilePermissions); writeError != nil {
			return createdPaths, fmt.Errorf("write %s: %w", resolvedLocations.GlobalWhitelist, writeError)
		}
		createdPaths = append(createdPaths, resolvedLocations.GlobalWhitelist)
	}

	return createdPaths, nil
}

// seedContent prefers an existing local list file over the built-in
// default patterns.
func seedContent(localFilePath string, defaultPatterns []string) string {
	if localContent := readSeedFile(localFilePath); localContent != "" {
		return localContent
	}
	return strings.Join(defaultPatterns, "\n") + "\n"
}

// readSeedFile returns a file's content or the empty string.
func readSeedFile(filePath string) string {
	fileData, readError := os.ReadFile(filePath)
	if readError != nil {
		return ""
	}
	return string(fileData)
}

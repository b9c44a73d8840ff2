package utils

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const unknownVersion = "unknown"

// GetApplicationVersion attempts to determine the application version.
// It checks Go build info first, then falls back to git describe when a
// repository is available.
func GetApplicationVersion() string {
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		return buildInfo.Main.Version
	}

	repositoryDirectory, findError := findGitRepository(".")
	if findError != nil {
		return unknownVersion
	}

	// #nosec G204
	describeCommand := exec.Command("git", "describe", "--tags", "--long", "--dirty")
	describeCommand.Dir = repositoryDirectory
	describeOutput, describeError := describeCommand.Output()
	if describeError == nil && len(describeOutput) > 0 {
		return strings.TrimSpace(string(describeOutput))
	}
	return unknownVersion
}

// findGitRepository searches upward from the starting directory for a
// directory containing a .git folder.
func findGitRepository(startDirectory string) (string, error) {
	absoluteStartDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return "", absoluteError
	}
	currentDirectory := absoluteStartDirectory
	for {
		gitPath := filepath.Join(currentDirectory, GitDirectoryName)
		fileInformation, statError := os.Stat(gitPath)
		if statError == nil && fileInformation.IsDir() {
			return currentDirectory, nil
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", os.ErrNotExist
		}
		currentDirectory = parentDirectory
	}
}

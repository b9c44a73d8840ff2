package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/contextify/internal/config"
	"github.com/temirov/contextify/internal/types"
)

// writeWorkspaceFile creates a file with parent directories as needed.
func writeWorkspaceFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if directoryError := os.MkdirAll(filepath.Dir(filePath), 0o755); directoryError != nil {
		testingHandle.Fatalf("mkdir failed: %v", directoryError)
	}
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("write failed: %v", writeError)
	}
}

// changeWorkingDirectory switches into the given directory for the
// duration of the test and restores the previous directory afterwards.
func changeWorkingDirectory(testingHandle *testing.T, directory string) {
	testingHandle.Helper()
	previousDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		testingHandle.Fatalf("getwd failed: %v", workingDirectoryError)
	}
	if changeError := os.Chdir(directory); changeError != nil {
		testingHandle.Fatalf("chdir failed: %v", changeError)
	}
	testingHandle.Cleanup(func() {
		if restoreError := os.Chdir(previousDirectory); restoreError != nil {
			testingHandle.Fatalf("restore chdir failed: %v", restoreError)
		}
	})
}

// isolateHome points the home directory at an empty location so global
// configuration files never leak into a test.
func isolateHome(testingHandle *testing.T) {
	testingHandle.Helper()
	testingHandle.Setenv("HOME", testingHandle.TempDir())
}

// TestBuildFilterAppendsGitignoreLast verifies .gitignore patterns
// evaluate after explicit blacklist patterns under last-match-wins.
func TestBuildFilterAppendsGitignoreLast(testingHandle *testing.T) {
	isolateHome(testingHandle)
	workingDirectory := testingHandle.TempDir()
	writeWorkspaceFile(testingHandle, filepath.Join(workingDirectory, ".gitignore"), "keep.log\n")

	pathFilter, filterError := buildFilter(workingDirectory, captureOptions{
		blacklistInline: "*.log,!keep.log",
		useGitignore:    true,
	}, config.ApplicationConfiguration{})
	if filterError != nil {
		testingHandle.Fatalf("buildFilter failed: %v", filterError)
	}

	if pathFilter.Verdict("keep.log", false) != types.VerdictExcluded {
		testingHandle.Fatal("gitignore pattern should override the earlier inline negation")
	}
	if pathFilter.Verdict("other.log", false) != types.VerdictExcluded {
		testingHandle.Fatal("inline blacklist pattern should still apply")
	}
	if pathFilter.Verdict("main.go", false) != types.VerdictIncluded {
		testingHandle.Fatal("unmatched file should stay included")
	}
}

// TestBuildFilterDuplicateAcrossSourcesStaysLast verifies that a
// .gitignore pattern duplicating an earlier inline pattern keeps its
// position at the end of the sequence, so it still overrides an
// intervening negation.
func TestBuildFilterDuplicateAcrossSourcesStaysLast(testingHandle *testing.T) {
	isolateHome(testingHandle)
	workingDirectory := testingHandle.TempDir()
	writeWorkspaceFile(testingHandle, filepath.Join(workingDirectory, ".gitignore"), "*.log\n")

	pathFilter, filterError := buildFilter(workingDirectory, captureOptions{
		blacklistInline: "*.log,!keep.log",
		useGitignore:    true,
	}, config.ApplicationConfiguration{})
	if filterError != nil {
		testingHandle.Fatalf("buildFilter failed: %v", filterError)
	}

	if pathFilter.Verdict("keep.log", false) != types.VerdictExcluded {
		testingHandle.Fatal("the gitignore duplicate of *.log must survive deduplication and evaluate last")
	}
	if pathFilter.Verdict("other.log", false) != types.VerdictExcluded {
		testingHandle.Fatal("*.log should still exclude other log files")
	}
}

// TestBuildFilterExplicitListFileMustExist verifies that a named list
// file is required while the default location may be absent.
func TestBuildFilterExplicitListFileMustExist(testingHandle *testing.T) {
	isolateHome(testingHandle)
	workingDirectory := testingHandle.TempDir()

	_, missingError := buildFilter(workingDirectory, captureOptions{
		blacklistFilePath: "absent.list",
	}, config.ApplicationConfiguration{})
	if missingError == nil {
		testingHandle.Fatal("explicit missing list file must fail")
	}

	if _, enabledError := buildFilter(workingDirectory, captureOptions{
		useBlacklistFile: true,
	}, config.ApplicationConfiguration{}); enabledError != nil {
		testingHandle.Fatalf("absent default list file should be tolerated: %v", enabledError)
	}
}

// TestBuildFilterCombinesSources verifies settings patterns, list files,
// and inline flags all feed the compiled sets.
func TestBuildFilterCombinesSources(testingHandle *testing.T) {
	isolateHome(testingHandle)
	workingDirectory := testingHandle.TempDir()
	writeWorkspaceFile(testingHandle, filepath.Join(workingDirectory, config.LocalWhitelistFileName), "*.md\n")

	pathFilter, filterError := buildFilter(workingDirectory, captureOptions{
		useWhitelistFile: true,
		whitelistInline:  "*.go",
	}, config.ApplicationConfiguration{
		Blacklist: config.PatternSourceConfiguration{Patterns: []string{"vendor/"}},
	})
	if filterError != nil {
		testingHandle.Fatalf("buildFilter failed: %v", filterError)
	}

	if pathFilter.Verdict("vendor/lib.go", false) != types.VerdictExcluded {
		testingHandle.Fatal("settings blacklist pattern should apply")
	}
	if pathFilter.Verdict("README.md", false) != types.VerdictIncluded {
		testingHandle.Fatal("whitelist file pattern should admit markdown")
	}
	if pathFilter.Verdict("main.go", false) != types.VerdictIncluded {
		testingHandle.Fatal("inline whitelist pattern should admit Go sources")
	}
	if pathFilter.Verdict("notes.txt", false) != types.VerdictExcluded {
		testingHandle.Fatal("file outside the whitelist should be excluded")
	}
}

// TestApplyConfiguredDefaults verifies settings only fill flags the user
// left untouched.
func TestApplyConfiguredDefaults(testingHandle *testing.T) {
	rootCommand := createRootCommand()
	if parseError := rootCommand.Flags().Parse([]string{"--output", "explicit.txt"}); parseError != nil {
		testingHandle.Fatalf("flag parse failed: %v", parseError)
	}

	configuredStats := true
	overlaid := applyConfiguredDefaults(rootCommand, captureOptions{outputPath: "explicit.txt"}, config.ApplicationConfiguration{
		Output:     "configured.txt",
		Stats:      &configuredStats,
		TokenModel: "gpt-4o",
	})

	if overlaid.outputPath != "explicit.txt" {
		testingHandle.Fatalf("explicit flag overridden: %q", overlaid.outputPath)
	}
	if !overlaid.showStats {
		testingHandle.Fatal("unset stats flag should take the configured default")
	}
	if overlaid.tokenModel != "gpt-4o" {
		testingHandle.Fatalf("tokenModel = %q, want gpt-4o", overlaid.tokenModel)
	}
}

// TestResolveSinkStdoutSentinel verifies '-' selects the stream sink.
func TestResolveSinkStdoutSentinel(testingHandle *testing.T) {
	rootCommand := createRootCommand()
	streamSink, sinkError := resolveSink(rootCommand, "-")
	if sinkError != nil {
		testingHandle.Fatalf("resolveSink failed: %v", sinkError)
	}
	if streamSink.AbsolutePath() != "" {
		testingHandle.Fatal("stream sink must not expose a file path")
	}

	fileSink, fileSinkError := resolveSink(rootCommand, "out.txt")
	if fileSinkError != nil {
		testingHandle.Fatalf("resolveSink failed: %v", fileSinkError)
	}
	if fileSink.AbsolutePath() == "" {
		testingHandle.Fatal("file sink must expose its absolute path")
	}
}

// TestCaptureEndToEnd runs the root command against a small project tree
// and checks the produced document and statistics output.
func TestCaptureEndToEnd(testingHandle *testing.T) {
	isolateHome(testingHandle)
	projectDirectory := testingHandle.TempDir()
	writeWorkspaceFile(testingHandle, filepath.Join(projectDirectory, "main.go"), "package main\n")
	writeWorkspaceFile(testingHandle, filepath.Join(projectDirectory, "notes.txt"), "scratch\n")
	writeWorkspaceFile(testingHandle, filepath.Join(projectDirectory, "docs", "guide.md"), "# guide\n")
	changeWorkingDirectory(testingHandle, projectDirectory)

	var commandOutput bytes.Buffer
	rootCommand := createRootCommand()
	rootCommand.SetOut(&commandOutput)
	rootCommand.SetErr(&commandOutput)
	rootCommand.SetArgs([]string{".", "--whitelist-patterns", "*.go,*.md", "--output", "capture.txt", "--stats"})

	if executeError := rootCommand.Execute(); executeError != nil {
		testingHandle.Fatalf("Execute failed: %v", executeError)
	}

	documentData, readError := os.ReadFile(filepath.Join(projectDirectory, "capture.txt"))
	if readError != nil {
		testingHandle.Fatalf("read capture: %v", readError)
	}
	document := string(documentData)
	for _, expectedFragment := range []string{"Project Structure:", "File Contents:", "main.go:", "docs/guide.md:"} {
		if !strings.Contains(document, expectedFragment) {
			testingHandle.Fatalf("document missing %q:\n%s", expectedFragment, document)
		}
	}
	if strings.Contains(document, "notes.txt") {
		testingHandle.Fatal("whitelisted capture must not include notes.txt")
	}
	if !strings.Contains(commandOutput.String(), "saved to capture.txt") {
		testingHandle.Fatalf("missing saved message:\n%s", commandOutput.String())
	}
	if !strings.Contains(commandOutput.String(), "STATISTICS:") {
		testingHandle.Fatalf("missing statistics summary:\n%s", commandOutput.String())
	}
}

// TestCaptureExcludesOwnOutput verifies a rerun never captures the
// previous document.
func TestCaptureExcludesOwnOutput(testingHandle *testing.T) {
	isolateHome(testingHandle)
	projectDirectory := testingHandle.TempDir()
	writeWorkspaceFile(testingHandle, filepath.Join(projectDirectory, "main.go"), "package main\n")
	changeWorkingDirectory(testingHandle, projectDirectory)

	runCaptureOnce := func() string {
		var commandOutput bytes.Buffer
		rootCommand := createRootCommand()
		rootCommand.SetOut(&commandOutput)
		rootCommand.SetErr(&commandOutput)
		rootCommand.SetArgs([]string{"."})
		if executeError := rootCommand.Execute(); executeError != nil {
			testingHandle.Fatalf("Execute failed: %v", executeError)
		}
		documentData, readError := os.ReadFile(filepath.Join(projectDirectory, "project_contents.txt"))
		if readError != nil {
			testingHandle.Fatalf("read capture: %v", readError)
		}
		return string(documentData)
	}

	firstDocument := runCaptureOnce()
	secondDocument := runCaptureOnce()
	if strings.Contains(secondDocument, "project_contents.txt") {
		testingHandle.Fatal("second capture includes the output file")
	}
	if firstDocument != secondDocument {
		testingHandle.Fatal("reruns over an unchanged tree must match")
	}
}

package aggregate_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/temirov/contextify/internal/aggregate"
	"github.com/temirov/contextify/internal/stats"
	"github.com/temirov/contextify/internal/types"
)

// writeSnapshotFile creates one file and returns its snapshot entry.
func writeSnapshotFile(testingHandle *testing.T, rootDirectory string, relativePath string, content []byte) types.FileEntry {
	testingHandle.Helper()
	absolutePath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
	if directoryError := os.MkdirAll(filepath.Dir(absolutePath), 0o755); directoryError != nil {
		testingHandle.Fatalf("mkdir failed: %v", directoryError)
	}
	if writeError := os.WriteFile(absolutePath, content, 0o644); writeError != nil {
		testingHandle.Fatalf("write failed: %v", writeError)
	}
	return types.FileEntry{RelativePath: relativePath, AbsolutePath: absolutePath}
}

// TestReadBlocksPreservesSnapshotOrder verifies blocks land at their
// snapshot index regardless of parallel completion order.
func TestReadBlocksPreservesSnapshotOrder(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	entryCount := 40
	snapshot := types.ProjectSnapshot{}
	for entryIndex := 0; entryIndex < entryCount; entryIndex++ {
		relativePath := fmt.Sprintf("files/entry_%03d.txt", entryIndex)
		fileEntry := writeSnapshotFile(testingHandle, rootDirectory, relativePath, []byte(relativePath))
		snapshot.Entries = append(snapshot.Entries, fileEntry)
	}

	contentBlocks, readError := aggregate.ReadBlocks(context.Background(), snapshot, nil, aggregate.Options{WorkerCount: 8})
	if readError != nil {
		testingHandle.Fatalf("ReadBlocks failed: %v", readError)
	}
	if len(contentBlocks) != entryCount {
		testingHandle.Fatalf("block count = %d, want %d", len(contentBlocks), entryCount)
	}
	for blockIndex, contentBlock := range contentBlocks {
		expectedPath := snapshot.Entries[blockIndex].RelativePath
		if contentBlock.Entry.RelativePath != expectedPath {
			testingHandle.Fatalf("block %d holds %q, want %q", blockIndex, contentBlock.Entry.RelativePath, expectedPath)
		}
		if contentBlock.Content != expectedPath {
			testingHandle.Fatalf("block %d content = %q, want %q", blockIndex, contentBlock.Content, expectedPath)
		}
	}
}

// TestReadBlocksUnreadableFileBecomesDiagnostic verifies one failed read
// yields a diagnostic block without aborting the pass.
func TestReadBlocksUnreadableFileBecomesDiagnostic(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	readableEntry := writeSnapshotFile(testingHandle, rootDirectory, "ok.txt", []byte("fine\n"))
	missingEntry := types.FileEntry{
		RelativePath: "gone.txt",
		AbsolutePath: filepath.Join(rootDirectory, "gone.txt"),
	}
	snapshot := types.ProjectSnapshot{Entries: []types.FileEntry{missingEntry, readableEntry}}

	statsCollector := stats.NewCollector()
	contentBlocks, readError := aggregate.ReadBlocks(context.Background(), snapshot, statsCollector, aggregate.Options{})
	if readError != nil {
		testingHandle.Fatalf("ReadBlocks failed: %v", readError)
	}

	if contentBlocks[0].ReadError == "" || !strings.HasPrefix(contentBlocks[0].ReadError, "Error reading file:") {
		testingHandle.Fatalf("missing file diagnostic = %q", contentBlocks[0].ReadError)
	}
	if contentBlocks[1].Content != "fine\n" {
		testingHandle.Fatalf("readable content = %q", contentBlocks[1].Content)
	}

	collected := statsCollector.Finalize()
	if collected.IncludedFiles != 2 {
		testingHandle.Fatalf("IncludedFiles = %d, want 2", collected.IncludedFiles)
	}
	if collected.ReadErrors != 1 {
		testingHandle.Fatalf("ReadErrors = %d, want 1", collected.ReadErrors)
	}
	if collected.TotalLines != 1 {
		testingHandle.Fatalf("TotalLines = %d, want 1", collected.TotalLines)
	}
}

// TestReadBlocksBinaryFileIsOmitted verifies binary detection yields a
// placeholder instead of raw bytes.
func TestReadBlocksBinaryFileIsOmitted(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	binaryEntry := writeSnapshotFile(testingHandle, rootDirectory, "blob.bin", []byte{0x00, 0x01, 0xFF, 0xFE})
	snapshot := types.ProjectSnapshot{Entries: []types.FileEntry{binaryEntry}}

	contentBlocks, readError := aggregate.ReadBlocks(context.Background(), snapshot, nil, aggregate.Options{})
	if readError != nil {
		testingHandle.Fatalf("ReadBlocks failed: %v", readError)
	}
	if !strings.HasPrefix(contentBlocks[0].ReadError, "Binary file (") {
		testingHandle.Fatalf("binary diagnostic = %q", contentBlocks[0].ReadError)
	}
	if contentBlocks[0].Content != "" {
		testingHandle.Fatal("binary content must be omitted")
	}
}

// TestRenderDocumentLayout verifies the document sections, fences, and
// block separation.
func TestRenderDocumentLayout(testingHandle *testing.T) {
	snapshot := types.ProjectSnapshot{Entries: []types.FileEntry{
		{RelativePath: "a.txt"},
		{RelativePath: "dir/b.txt"},
	}}
	contentBlocks := []types.ContentBlock{
		{Entry: snapshot.Entries[0], Content: "alpha\n"},
		{Entry: snapshot.Entries[1], Content: "beta"},
	}

	document := aggregate.RenderDocument(snapshot, contentBlocks)
	expectedDocument := strings.Join([]string{
		"Project Structure:",
		"a.txt",
		"dir/",
		"  b.txt",
		"",
		"File Contents:",
		"a.txt:",
		"```",
		"alpha",
		"```",
		"",
		"dir/b.txt:",
		"```",
		"beta",
		"```",
		"",
	}, "\n")
	if document != expectedDocument {
		testingHandle.Fatalf("document mismatch:\n%q\nwant:\n%q", document, expectedDocument)
	}
}

// TestRenderDocumentIsDeterministic verifies byte-identical output for
// identical inputs.
func TestRenderDocumentIsDeterministic(testingHandle *testing.T) {
	snapshot := types.ProjectSnapshot{Entries: []types.FileEntry{
		{RelativePath: "x/y.go"},
		{RelativePath: "z.go"},
	}}
	contentBlocks := []types.ContentBlock{
		{Entry: snapshot.Entries[0], Content: "package y\n"},
		{Entry: snapshot.Entries[1], Content: "package z\n"},
	}
	firstDocument := aggregate.RenderDocument(snapshot, contentBlocks)
	secondDocument := aggregate.RenderDocument(snapshot, contentBlocks)
	if firstDocument != secondDocument {
		testingHandle.Fatal("renders of identical inputs differ")
	}
}

// TestStructureLinesTree verifies directory grouping and indentation.
func TestStructureLinesTree(testingHandle *testing.T) {
	snapshot := types.ProjectSnapshot{Entries: []types.FileEntry{
		{RelativePath: "a/b/c.txt"},
		{RelativePath: "a/b/d.txt"},
		{RelativePath: "a/e.txt"},
		{RelativePath: "f.txt"},
	}}

	expectedLines := []string{
		"a/",
		"  b/",
		"    c.txt",
		"    d.txt",
		"  e.txt",
		"f.txt",
	}
	if actualLines := aggregate.StructureLines(snapshot); !reflect.DeepEqual(actualLines, expectedLines) {
		testingHandle.Fatalf("StructureLines = %v, want %v", actualLines, expectedLines)
	}
}

// Package aggregate reads the files of a snapshot in parallel and
// renders the structure and contents sections of the capture document.
package aggregate

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/temirov/contextify/internal/stats"
	"github.com/temirov/contextify/internal/tokenizer"
	"github.com/temirov/contextify/internal/types"
	"github.com/temirov/contextify/internal/utils"
)

const (
	// structureHeading opens the tree section of the document.
	structureHeading = "Project Structure:"
	// contentsHeading opens the per-file section of the document.
	contentsHeading = "File Contents:"
	// fenceLine delimits one file's content from the next.
	fenceLine = "```"
	// headerSuffix terminates the relative path preceding a fence.
	headerSuffix = ":"
	// structureIndent is the per-level indentation of the tree section.
	structureIndent = "  "
	// directorySuffix marks directories in the tree section.
	directorySuffix = "/"
	// readErrorFormat is the diagnostic emitted for unreadable files.
	readErrorFormat = "Error reading file: %v"
	// binaryContentFormat is the diagnostic emitted for binary files.
	binaryContentFormat = "Binary file (%s, %s): content omitted"
)

// Options configures one aggregation pass.
type Options struct {
	// WorkerCount bounds the parallel read pool; non-positive values
	// select runtime.NumCPU().
	WorkerCount int
	// TokenCounter estimates per-file tokens for statistics. Nil selects
	// the default heuristic counter.
	TokenCounter tokenizer.Counter
}

// ReadBlocks reads every snapshot entry through a bounded worker pool.
// Results land in a slice indexed by snapshot position, so the returned
// order is the snapshot order regardless of read completion order. A
// single file's failure becomes a diagnostic block and never cancels
// sibling reads.
func ReadBlocks(
	ctx context.Context,
	snapshot types.ProjectSnapshot,
	collector *stats.Collector,
	options Options,
) ([]types.ContentBlock, error) {
	workerCount := options.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	tokenCounter := options.TokenCounter
	if tokenCounter == nil {
		tokenCounter = tokenizer.NewHeuristicCounter(0)
	}

	contentBlocks := make([]types.ContentBlock, len(snapshot.Entries))
	readGroup, readContext := errgroup.WithContext(ctx)
	readGroup.SetLimit(workerCount)

	for entryIndex, fileEntry := range snapshot.Entries {
		blockIndex := entryIndex
		currentEntry := fileEntry
		readGroup.Go(func() error {
			if contextError := readContext.Err(); contextError != nil {
				return contextError
			}
			contentBlocks[blockIndex] = readEntry(currentEntry, collector, tokenCounter)
			return nil
		})
	}

	if waitError := readGroup.Wait(); waitError != nil {
		return nil, waitError
	}
	return contentBlocks, nil
}

// readEntry produces the content block for one file and feeds the
// statistics collector.
func readEntry(fileEntry types.FileEntry, collector *stats.Collector, tokenCounter tokenizer.Counter) types.ContentBlock {
	fileData, readError := os.ReadFile(fileEntry.AbsolutePath)
	if readError != nil {
		if collector != nil {
			collector.AddUnreadFile()
		}
		return types.ContentBlock{Entry: fileEntry, ReadError: fmt.Sprintf(readErrorFormat, readError)}
	}
	if utils.IsBinary(fileData) {
		if collector != nil {
			collector.AddUnreadFile()
		}
		diagnostic := fmt.Sprintf(binaryContentFormat, utils.DetectMimeType(fileData), utils.FormatFileSize(int64(len(fileData))))
		return types.ContentBlock{Entry: fileEntry, ReadError: diagnostic}
	}

	content := string(fileData)
	if collector != nil {
		tokenCount, countError := tokenCounter.CountString(content)
		if countError != nil {
			tokenCount, _ = tokenizer.NewHeuristicCounter(0).CountString(content)
		}
		collector.AddIncludedFile(countLines(content), utf8.RuneCountInString(content), tokenCount)
	}
	return types.ContentBlock{Entry: fileEntry, Content: content}
}

// countLines counts content lines; a trailing newline does not open an
// additional line.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	lineCount := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		lineCount++
	}
	return lineCount
}

// RenderDocument assembles the full capture document from the snapshot
// and its content blocks. Given identical inputs the output is
// byte-identical across runs.
func RenderDocument(snapshot types.ProjectSnapshot, contentBlocks []types.ContentBlock) string {
	var documentBuilder strings.Builder

	documentBuilder.WriteString(structureHeading)
	documentBuilder.WriteString("\n")
	for _, structureLine := range StructureLines(snapshot) {
		documentBuilder.WriteString(structureLine)
		documentBuilder.WriteString("\n")
	}

	documentBuilder.WriteString("\n")
	documentBuilder.WriteString(contentsHeading)
	documentBuilder.WriteString("\n")
	for blockIndex, contentBlock := range contentBlocks {
		if blockIndex > 0 {
			documentBuilder.WriteString("\n")
		}
		documentBuilder.WriteString(contentBlock.Entry.RelativePath)
		documentBuilder.WriteString(headerSuffix)
		documentBuilder.WriteString("\n")
		documentBuilder.WriteString(fenceLine)
		documentBuilder.WriteString("\n")
		if contentBlock.ReadError != "" {
			documentBuilder.WriteString(contentBlock.ReadError)
			documentBuilder.WriteString("\n")
		} else {
			documentBuilder.WriteString(contentBlock.Content)
			if !strings.HasSuffix(contentBlock.Content, "\n") {
				documentBuilder.WriteString("\n")
			}
		}
		documentBuilder.WriteString(fenceLine)
		documentBuilder.WriteString("\n")
	}

	return documentBuilder.String()
}

// StructureLines renders an indented tree of the snapshot's included
// paths. Directories appear once, and only as ancestors of an included
// file; fully excluded directories are absent because the snapshot never
// contains them.
func StructureLines(snapshot types.ProjectSnapshot) []string {
	var structureLines []string
	var previousSegments []string
	for _, fileEntry := range snapshot.Entries {
		pathSegments := strings.Split(strings.TrimPrefix(fileEntry.RelativePath, "/"), "/")
		sharedDepth := 0
		for sharedDepth < len(previousSegments) && sharedDepth < len(pathSegments)-1 &&
			previousSegments[sharedDepth] == pathSegments[sharedDepth] {
			sharedDepth++
		}
		for directoryDepth := sharedDepth; directoryDepth < len(pathSegments)-1; directoryDepth++ {
			structureLines = append(structureLines,
				strings.Repeat(structureIndent, directoryDepth)+pathSegments[directoryDepth]+directorySuffix)
		}
		structureLines = append(structureLines,
			strings.Repeat(structureIndent, len(pathSegments)-1)+pathSegments[len(pathSegments)-1])
		previousSegments = pathSegments[:len(pathSegments)-1]
	}
	return structureLines
}

// Package stats accumulates per-run counters and renders the
// human-readable summary printed alongside the capture document.
package stats

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/temirov/contextify/internal/types"
)

// Collector accumulates statistics for a single capture run. Aggregation
// workers add files concurrently; consumers read the totals only through
// Finalize, after which the counters are frozen.
type Collector struct {
	mutex       sync.Mutex
	accumulated types.Statistics
	startedAt   time.Time
	finalized   bool
}

// NewCollector starts a collector; elapsed time is measured from this call.
func NewCollector() *Collector {
	return &Collector{startedAt: time.Now()}
}

// AddIncludedFile records the counters of one successfully read file.
func (collector *Collector) AddIncludedFile(lineCount int, characterCount int, tokenCount int) {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	if collector.finalized {
		return
	}
	collector.accumulated.IncludedFiles++
	collector.accumulated.TotalLines += lineCount
	collector.accumulated.TotalCharacters += characterCount
	collector.accumulated.EstimatedTokens += tokenCount
}

// AddUnreadFile records an included file whose content could not be read
// or was withheld as binary. It contributes to the processed count and the
// separate read-error tally, never to line or character totals.
func (collector *Collector) AddUnreadFile() {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	if collector.finalized {
		return
	}
	collector.accumulated.IncludedFiles++
	collector.accumulated.ReadErrors++
}

// SetExcludedFiles records the traversal's excluded-file count.
func (collector *Collector) SetExcludedFiles(excludedCount int) {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	if collector.finalized {
		return
	}
	collector.accumulated.ExcludedFiles = excludedCount
}

// SetTokenModel records which counter produced the token estimates.
func (collector *Collector) SetTokenModel(modelName string) {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	if collector.finalized {
		return
	}
	collector.accumulated.TokenModel = modelName
}

// Finalize freezes the counters, stamps the elapsed duration, and
// returns the completed statistics. Subsequent writes are ignored.
func (collector *Collector) Finalize() types.Statistics {
	collector.mutex.Lock()
	defer collector.mutex.Unlock()
	if !collector.finalized {
		collector.accumulated.Elapsed = time.Since(collector.startedAt)
		collector.finalized = true
	}
	return collector.accumulated
}

// summary line labels.
const (
	summaryHeading        = "STATISTICS:"
	elapsedLineFormat     = "  Execution time: %s\n"
	filesLineFormat       = "  Files processed: %d\n"
	excludedLineFormat    = "  Files excluded: %d\n"
	readErrorsLineFormat  = "  Read errors: %d\n"
	linesLineFormat       = "  Total lines: %d\n"
	charactersLineFormat  = "  Total characters: %d\n"
	tokensLineFormat      = "  Estimated tokens: %d (%s)\n"
	elapsedDisplayPattern = "%.2fs"
)

// WriteSummary renders the statistics as the human-readable block shown
// after a capture. The summary is separate from the document body.
func WriteSummary(destination io.Writer, statistics types.Statistics) {
	headingColor := color.New(color.FgCyan, color.Bold)
	valueColor := color.New(color.FgHiWhite)

	headingColor.Fprintln(destination, summaryHeading)
	valueColor.Fprintf(destination, elapsedLineFormat, formatElapsed(statistics.Elapsed))
	valueColor.Fprintf(destination, filesLineFormat, statistics.IncludedFiles)
	valueColor.Fprintf(destination, excludedLineFormat, statistics.ExcludedFiles)
	valueColor.Fprintf(destination, readErrorsLineFormat, statistics.ReadErrors)
	valueColor.Fprintf(destination, linesLineFormat, statistics.TotalLines)
	valueColor.Fprintf(destination, charactersLineFormat, statistics.TotalCharacters)
	valueColor.Fprintf(destination, tokensLineFormat, statistics.EstimatedTokens, statistics.TokenModel)
}

// formatElapsed renders sub-second precision for short runs and falls
// back to the duration's own format for longer ones.
func formatElapsed(elapsed time.Duration) string {
	if elapsed < time.Minute {
		return fmt.Sprintf(elapsedDisplayPattern, elapsed.Seconds())
	}
	return elapsed.String()
}

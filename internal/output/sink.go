// Package output delivers the rendered capture document to its
// destination: a named file or an output stream.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StdoutSentinel selects the stream destination on the command line.
const StdoutSentinel = "-"

// outputFilePermissions are the mode bits of a created output file.
const outputFilePermissions = 0o644

// WriteError reports a destination that could not be created or written.
// It is the only error surfaced as a final run failure; no partial
// artifact remains when it occurs.
type WriteError struct {
	Destination string
	Err         error
}

// Error formats the write failure description.
func (writeError *WriteError) Error() string {
	return fmt.Sprintf("writing output to '%s': %v", writeError.Destination, writeError.Err)
}

// Unwrap exposes the underlying filesystem error.
func (writeError *WriteError) Unwrap() error { return writeError.Err }

// Sink is a resolved output destination. The document is held complete
// in memory and written in a single call, so a failed run never leaves a
// half-written file behind.
type Sink struct {
	absolutePath string
	stream       io.Writer
}

// NewFileSink resolves a file destination to its absolute path. The
// resolved path is exposed before traversal so the walker can exclude
// the destination from its own snapshot.
func NewFileSink(destinationPath string) (*Sink, error) {
	absolutePath, absoluteError := filepath.Abs(destinationPath)
	if absoluteError != nil {
		return nil, &WriteError{Destination: destinationPath, Err: absoluteError}
	}
	return &Sink{absolutePath: filepath.Clean(absolutePath)}, nil
}

// NewStreamSink wraps a writer destination, typically standard output.
func NewStreamSink(stream io.Writer) *Sink {
	return &Sink{stream: stream}
}

// AbsolutePath returns the file destination's absolute path, or the
// empty string for a stream sink.
func (sink *Sink) AbsolutePath() string {
	return sink.absolutePath
}

// Write delivers the complete document. File destinations are written
// with a single os.WriteFile call after aggregation has finished.
func (sink *Sink) Write(document string) error {
	if sink.stream != nil {
		if _, writeError := io.WriteString(sink.stream, document); writeError != nil {
			return &WriteError{Destination: "stream", Err: writeError}
		}
		return nil
	}
	if writeError := os.WriteFile(sink.absolutePath, []byte(document), outputFilePermissions); writeError != nil {
		return &WriteError{Destination: sink.absolutePath, Err: writeError}
	}
	return nil
}

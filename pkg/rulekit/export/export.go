// Package export writes a reasoning trace to an external sink. Every sink
// replaces whatever it held before with the newline-joined entries.
package export

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cognicore/rulekit/pkg/rulekit/internalerr"
	"github.com/cognicore/rulekit/pkg/rulekit/trace"
)

// Trace is the flat form of an inference log handed to writers.
type Trace struct {
	RunID string
	Lines []string
}

// Body is the export text: one entry per line, no trailing newline.
func (t Trace) Body() string {
	return strings.Join(t.Lines, "\n")
}

// TraceWriter persists a trace to a destination (file, DB, etc.).
type TraceWriter interface {
	WriteTrace(ctx context.Context, t Trace) error
}

// Exporter hands an inference log to a writer.
type Exporter struct {
	Writer TraceWriter
}

// Export writes the log. Writer failures are wrapped with
// internalerr.ErrExport; the underlying error stays reachable.
func (e *Exporter) Export(ctx context.Context, log *trace.Log) error {
	if e.Writer == nil {
		return fmt.Errorf("trace exporter: %w", internalerr.ErrNilWriter)
	}
	if log == nil {
		return fmt.Errorf("trace exporter: %w: nil log", internalerr.ErrInvalidInput)
	}
	t := Trace{RunID: log.RunID(), Lines: log.Entries()}
	if err := e.Writer.WriteTrace(ctx, t); err != nil {
		return fmt.Errorf("%w: %w", internalerr.ErrExport, err)
	}
	return nil
}

// FileWriter overwrites a plain text file.
type FileWriter struct {
	Path string
}

func (w FileWriter) WriteTrace(ctx context.Context, t Trace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(w.Path, []byte(t.Body()), 0o644)
}

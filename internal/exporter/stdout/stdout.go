// Package stdout implements an Exporter that prints artifacts to standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shineum/email-composer/internal/exporter"
)

const separator = "========================================\n"

// Exporter prints artifacts to stdout between separator lines.
type Exporter struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Exporter that writes to os.Stdout.
func New() *Exporter {
	return &Exporter{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Exporter that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Exporter {
	return &Exporter{writer: w}
}

// Export prints the artifact with a short header naming the file.
func (e *Exporter) Export(_ context.Context, a *exporter.Artifact) error {
	var b strings.Builder

	b.WriteString(separator)
	fmt.Fprintf(&b, "File: %s\n", a.Filename)
	fmt.Fprintf(&b, "Type: %s\n", a.ContentType)
	fmt.Fprintf(&b, "Size: %s\n", exporter.FormatSize(len(a.Content)))
	b.WriteString(separator)
	b.Write(a.Content)
	if len(a.Content) > 0 && a.Content[len(a.Content)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString(separator)

	if _, err := io.WriteString(e.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.Filename, err)
	}
	return nil
}

// Name returns the exporter name.
func (e *Exporter) Name() string {
	return "stdout"
}

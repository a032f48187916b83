// Package file implements an Exporter that writes artifacts into a local directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shineum/email-composer/internal/exporter"
)

var ErrNoDirectory = errors.New("export directory is required")

// unsafeChars matches characters that are not alphanumeric, dash, underscore, or dot.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// Exporter writes each artifact to <dir>/<filename>, replacing any previous
// file with the same name.
type Exporter struct {
	dir string
}

// New creates a file Exporter rooted at dir. The directory is created on the
// first export if it does not exist.
func New(dir string) (*Exporter, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrNoDirectory
	}
	return &Exporter{dir: dir}, nil
}

// Export writes the artifact to a temporary file in the same directory and
// renames it into place. A failed export leaves no partial file.
func (e *Exporter) Export(ctx context.Context, a *exporter.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	target := filepath.Join(e.dir, SanitizeFilename(a.Filename))

	tmp, err := os.CreateTemp(e.dir, ".export-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(a.Content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", a.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", a.Filename, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", a.Filename, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", a.Filename, err)
	}

	slog.Debug("wrote artifact", "path", target, "size", len(a.Content))
	return nil
}

// Name returns the exporter name.
func (e *Exporter) Name() string {
	return "file"
}

// Dir returns the directory artifacts are written to.
func (e *Exporter) Dir() string {
	return e.dir
}

// SanitizeFilename reduces name to a single safe path element.
// Spaces become underscores, other unsafe characters are dropped, and an
// empty result falls back to "artifact".
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")

	const maxLength = 100
	if len(name) > maxLength {
		name = name[:maxLength]
	}
	if name == "" {
		name = "artifact"
	}
	return name
}

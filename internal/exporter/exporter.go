// Package exporter defines the interface for artifact export backends.
package exporter

import (
	"context"
	"fmt"
)

// Artifact is one generated file, ready to be offered to the user.
type Artifact struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Exporter is the interface that export backends must implement.
// Each backend delivers a generated artifact somewhere the user can pick it
// up (stdout, a local directory, object storage, OneDrive).
type Exporter interface {
	// Export delivers the artifact through this backend.
	// It returns an error if the delivery fails.
	Export(ctx context.Context, a *Artifact) error

	// Name returns the human-readable name of this backend.
	Name() string
}

// FormatSize formats a byte count into a human-readable string.
func FormatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

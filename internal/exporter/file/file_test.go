package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shineum/email-composer/internal/exporter"
)

func TestNew_RequiresDirectory(t *testing.T) {
	t.Parallel()

	if _, err := New("  "); !errors.Is(err, ErrNoDirectory) {
		t.Errorf("error: got %v, want ErrNoDirectory", err)
	}
}

func TestExport_WritesFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out", "nested")
	e, err := New(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := &exporter.Artifact{
		Filename:    "business-email.html",
		ContentType: "text/html",
		Content:     []byte("<html></html>"),
	}
	if err := e.Export(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "business-email.html"))
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(got) != "<html></html>" {
		t.Errorf("content: got %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("dir entries: got %d, want 1 (temporary file left behind?)", len(entries))
	}
}

func TestExport_Overwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	e, _ := New(dir)

	for _, content := range []string{"first", "second"} {
		err := e.Export(context.Background(), &exporter.Artifact{
			Filename: "email-template.json",
			Content:  []byte(content),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, _ := os.ReadFile(filepath.Join(dir, "email-template.json"))
	if string(got) != "second" {
		t.Errorf("content: got %q, want %q", got, "second")
	}
}

func TestExport_StaysInsideDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "exports")
	e, _ := New(dir)

	err := e.Export(context.Background(), &exporter.Artifact{
		Filename: "../escape.html",
		Content:  []byte("x"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "escape.html")); !os.IsNotExist(err) {
		t.Error("artifact escaped the export directory")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.html")); err != nil {
		t.Errorf("artifact not written inside export directory: %v", err)
	}
}

func TestExport_CancelledContext(t *testing.T) {
	t.Parallel()

	e, _ := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.Export(ctx, &exporter.Artifact{Filename: "a.html"}); !errors.Is(err, context.Canceled) {
		t.Errorf("error: got %v, want context.Canceled", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "business-email.html", want: "business-email.html"},
		{in: "my email.html", want: "my_email.html"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `..\..\boot.ini`, want: "boot.ini"},
		{in: "résumé?.json", want: "rsum.json"},
		{in: ".hidden", want: "hidden"},
		{in: "", want: "artifact"},
		{in: "///", want: "artifact"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	e, _ := New("out")
	if got := e.Name(); got != "file" {
		t.Errorf("Name(): got %q, want %q", got, "file")
	}
	if got := e.Dir(); got != "out" {
		t.Errorf("Dir(): got %q, want %q", got, "out")
	}
}

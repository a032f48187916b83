package datauri

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is the PNG signature followed by the start of an IHDR chunk,
// enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestFileDecoder_PNG(t *testing.T) {
	t.Parallel()

	// The extension is deliberately wrong: detection uses content.
	path := writeFile(t, "banner.txt", pngHeader)

	uri, err := NewFileDecoder(0).Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("uri: got %q", uri)
	}

	_, content, err := Decode(uri)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(content) != string(pngHeader) {
		t.Error("content mismatch after decoding")
	}
}

func TestFileDecoder_GIF(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "logo.gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"))
	uri, err := NewFileDecoder(0).Decode(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/gif;base64,") {
		t.Errorf("uri: got %q", uri)
	}
}

func TestFileDecoder_RejectsNonImage(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "notes.png", []byte("just some text, not an image"))
	_, err := NewFileDecoder(0).Decode(context.Background(), path)
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("error: got %v, want ErrNotImage", err)
	}
}

func TestFileDecoder_RejectsLargeFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "big.png", pngHeader)
	_, err := NewFileDecoder(8).Decode(context.Background(), path)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("error: got %v, want ErrTooLarge", err)
	}
}

func TestFileDecoder_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewFileDecoder(0).Decode(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error: got %v, want os.ErrNotExist", err)
	}
}

func TestFileDecoder_DataURISource(t *testing.T) {
	t.Parallel()

	d := NewFileDecoder(0)

	uri := Encode("image/png", pngHeader)
	got, err := d.Decode(context.Background(), uri)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != uri {
		t.Error("data URI source should be returned unchanged")
	}

	if _, err := d.Decode(context.Background(), "data:text/html,<p>hi</p>"); !errors.Is(err, ErrNotImage) {
		t.Errorf("error: got %v, want ErrNotImage", err)
	}
}

func TestFileDecoder_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileDecoder(0).Decode(ctx, "whatever.png")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error: got %v, want context.Canceled", err)
	}
}

package datauri

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxSize is the largest image FileDecoder accepts unless configured otherwise.
const DefaultMaxSize = 5 << 20

var (
	ErrNotImage = errors.New("not an image")
	ErrTooLarge = errors.New("image too large")
)

// FileDecoder turns a user-selected image into a data URI. The media type is
// sniffed from the content rather than trusted from the file name.
type FileDecoder struct {
	maxSize int64
}

// NewFileDecoder creates a FileDecoder that rejects images larger than
// maxSize bytes. A non-positive maxSize selects DefaultMaxSize.
func NewFileDecoder(maxSize int64) *FileDecoder {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &FileDecoder{maxSize: maxSize}
}

// Decode reads the image at source and returns it as a base64 data URI.
// Source may also be a data URI, which is checked and returned unchanged.
func (d *FileDecoder) Decode(ctx context.Context, source string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if IsDataURI(source) {
		mediaType, content, err := Decode(source)
		if err != nil {
			return "", err
		}
		if err := d.check(mediaType, content); err != nil {
			return "", err
		}
		return source, nil
	}

	content, err := d.readFile(source)
	if err != nil {
		return "", err
	}
	return d.FromBytes(content)
}

// FromBytes sniffs the media type of content and encodes it as a data URI.
func (d *FileDecoder) FromBytes(content []byte) (string, error) {
	mediaType := mimetype.Detect(content).String()
	if err := d.check(mediaType, content); err != nil {
		return "", err
	}

	slog.Debug("encoded header image",
		"media_type", mediaType,
		"size", len(content),
	)
	return Encode(mediaType, content), nil
}

func (d *FileDecoder) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	// Read one byte past the limit to detect oversized files.
	content, err := io.ReadAll(io.LimitReader(f, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(content)) > d.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, path, d.maxSize)
	}
	return content, nil
}

func (d *FileDecoder) check(mediaType string, content []byte) error {
	if !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("%w: detected %s", ErrNotImage, mediaType)
	}
	if int64(len(content)) > d.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(content), d.maxSize)
	}
	return nil
}

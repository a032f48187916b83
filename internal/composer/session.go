// Package composer holds an editing session over an email document. It turns
// user intents into model operations, pulls header images in through an
// ImageDecoder and hands rendered artifacts to an Exporter.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shineum/email-composer/internal/email"
	"github.com/shineum/email-composer/internal/exporter"
	"github.com/shineum/email-composer/internal/render"
)

const (
	// HTMLFilename is the name offered for the rendered page.
	HTMLFilename = "business-email.html"

	// ConfigFilename is the name offered for the JSON configuration.
	ConfigFilename = "email-template.json"

	htmlContentType   = "text/html"
	configContentType = "application/json"
)

var (
	// ErrNoExporter is returned by exports on a session without an exporter.
	ErrNoExporter = errors.New("no exporter configured")

	// ErrNoImageDecoder is returned by AttachImage on a session without a decoder.
	ErrNoImageDecoder = errors.New("no image decoder configured")
)

// ImageDecoder turns a user supplied image source into a data URI suitable
// for the document's header image.
type ImageDecoder interface {
	Decode(ctx context.Context, source string) (string, error)
}

// Session is the current state of one editor. Every mutating call replaces
// the document as a whole; a failed call leaves it untouched. A Session is
// safe for concurrent use.
type Session struct {
	images   ImageDecoder
	exporter exporter.Exporter

	mu  sync.RWMutex
	doc email.Document
}

// NewSession starts a session on doc. images and exp may be nil when the
// caller never attaches images or exports.
func NewSession(doc email.Document, images ImageDecoder, exp exporter.Exporter) *Session {
	return &Session{
		images:   images,
		exporter: exp,
		doc:      doc.Clone(),
	}
}

// Document returns a copy of the current document.
func (s *Session) Document() email.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// ApplyTemplate regenerates all sections from the template for t.
func (s *Session) ApplyTemplate(t email.TemplateType) error {
	return s.update(func(d email.Document) (email.Document, error) {
		return d.ApplyTemplate(t)
	})
}

// SetField sets one of the top-level text fields.
func (s *Session) SetField(f email.Field, value string) error {
	return s.update(func(d email.Document) (email.Document, error) {
		return d.SetField(f, value)
	})
}

// MoveSection moves a section one position up or down.
func (s *Session) MoveSection(id string, dir email.Direction) error {
	return s.update(func(d email.Document) (email.Document, error) {
		return d.MoveSection(id, dir)
	})
}

// SetSectionContent replaces the text of a section.
func (s *Session) SetSectionContent(id, content string) error {
	return s.update(func(d email.Document) (email.Document, error) {
		return d.SetSectionContent(id, content)
	})
}

// SetSectionStyle changes one style attribute of a section.
func (s *Session) SetSectionStyle(id string, key email.StyleKey, value any) error {
	return s.update(func(d email.Document) (email.Document, error) {
		return d.SetSectionStyle(id, key, value)
	})
}

// SetHeaderImage stores uri as the header image without looking at it.
func (s *Session) SetHeaderImage(uri string) {
	_ = s.update(func(d email.Document) (email.Document, error) {
		return d.SetHeaderImage(uri), nil
	})
}

// AttachImage decodes source into a data URI and makes it the header image.
// On failure the current header image is kept.
func (s *Session) AttachImage(ctx context.Context, source string) error {
	if s.images == nil {
		return ErrNoImageDecoder
	}

	uri, err := s.images.Decode(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to read header image: %w", err)
	}

	s.SetHeaderImage(uri)
	slog.Debug("attached header image", "size", len(uri))
	return nil
}

// Load replaces the document with one decoded from a JSON configuration.
func (s *Session) Load(data []byte) error {
	doc, err := email.DecodeConfig(data)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	slog.Info("loaded configuration",
		"type", doc.Type,
		"sections", len(doc.Sections),
	)
	return nil
}

// HTML renders the current document as a standalone page.
func (s *Session) HTML() *exporter.Artifact {
	return &exporter.Artifact{
		Filename:    HTMLFilename,
		ContentType: htmlContentType,
		Content:     []byte(render.HTML(s.Document())),
	}
}

// Config serializes the current document as a JSON configuration.
func (s *Session) Config() (*exporter.Artifact, error) {
	data, err := email.EncodeConfig(s.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}

	return &exporter.Artifact{
		Filename:    ConfigFilename,
		ContentType: configContentType,
		Content:     data,
	}, nil
}

// ExportHTML renders the document and passes the page to the exporter.
func (s *Session) ExportHTML(ctx context.Context) error {
	return s.export(ctx, s.HTML())
}

// ExportConfig serializes the document and passes it to the exporter.
func (s *Session) ExportConfig(ctx context.Context) error {
	a, err := s.Config()
	if err != nil {
		return err
	}
	return s.export(ctx, a)
}

func (s *Session) export(ctx context.Context, a *exporter.Artifact) error {
	if s.exporter == nil {
		return ErrNoExporter
	}

	if err := s.exporter.Export(ctx, a); err != nil {
		return fmt.Errorf("%s export of %s failed: %w", s.exporter.Name(), a.Filename, err)
	}

	slog.Info("exported artifact",
		"exporter", s.exporter.Name(),
		"filename", a.Filename,
		"size", exporter.FormatSize(len(a.Content)),
	)
	return nil
}

// update applies op to the current document and keeps the result only when
// op succeeds.
func (s *Session) update(op func(email.Document) (email.Document, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := op(s.doc)
	if err != nil {
		return err
	}
	s.doc = next
	return nil
}

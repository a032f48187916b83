// Package recipe reads YAML files that script an editing session: an optional
// starting configuration, a template, field values, a header image, a list of
// section edits and the artifacts to export.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shineum/email-composer/internal/composer"
	"github.com/shineum/email-composer/internal/datauri"
	"github.com/shineum/email-composer/internal/email"
)

// Step operations.
const (
	OpContent = "content"
	OpStyle   = "style"
	OpMove    = "move"
)

// Export formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// ErrInvalidRecipe is returned for recipes that fail validation.
var ErrInvalidRecipe = errors.New("invalid recipe")

// Recipe is a scripted editing session.
type Recipe struct {
	Load        string             `yaml:"load"`
	Template    email.TemplateType `yaml:"template"`
	Fields      map[string]string  `yaml:"fields"`
	HeaderImage string             `yaml:"header_image"`
	Steps       []Step             `yaml:"steps"`
	Export      []string           `yaml:"export"`
}

// Step is one section edit.
type Step struct {
	Op        string          `yaml:"op"`
	Section   string          `yaml:"section"`
	Key       email.StyleKey  `yaml:"key"`
	Value     any             `yaml:"value"`
	Direction email.Direction `yaml:"direction"`
}

// Parse decodes and validates a recipe.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadFile reads and parses the recipe at path.
func LoadFile(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}
	return Parse(data)
}

// Validate checks the recipe for mistakes that can be caught before any step
// runs. Section ids are not checked here; they depend on the document.
func (r *Recipe) Validate() error {
	if r.Template != "" && !r.Template.Valid() {
		return fmt.Errorf("%w: unknown template %q", ErrInvalidRecipe, r.Template)
	}
	if _, ok := email.LookupTemplate(r.Template); r.Template != "" && !ok {
		return fmt.Errorf("%w: template %q has no generated sections; leave template empty to keep the loaded sections", ErrInvalidRecipe, r.Template)
	}

	known := make(map[string]bool)
	for _, f := range email.Fields() {
		known[string(f)] = true
	}
	for name := range r.Fields {
		if !known[name] {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidRecipe, name)
		}
	}

	for i, step := range r.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrInvalidRecipe, i+1, err)
		}
	}

	for _, format := range r.Export {
		if format != FormatHTML && format != FormatJSON {
			return fmt.Errorf("%w: unknown export format %q", ErrInvalidRecipe, format)
		}
	}
	return nil
}

func (s Step) validate() error {
	if s.Section == "" {
		return errors.New("missing section")
	}

	switch s.Op {
	case OpContent:
		if _, ok := s.Value.(string); !ok && s.Value != nil {
			return fmt.Errorf("content value must be text, got %T", s.Value)
		}
	case OpStyle:
		if s.Key == "" {
			return errors.New("style step needs a key")
		}
	case OpMove:
		if s.Direction != email.Up && s.Direction != email.Down {
			return fmt.Errorf("direction must be up or down, got %q", s.Direction)
		}
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

// Formats returns the export formats the recipe asks for, html and json when
// it names none.
func (r *Recipe) Formats() []string {
	if len(r.Export) == 0 {
		return []string{FormatHTML, FormatJSON}
	}
	return r.Export
}

// Apply replays the recipe against s. Relative paths for load and
// header_image are resolved against baseDir. Apply stops at the first
// failing step; edits before it stay applied.
func (r *Recipe) Apply(ctx context.Context, s *composer.Session, baseDir string) error {
	if r.Load != "" {
		data, err := os.ReadFile(resolve(baseDir, r.Load))
		if err != nil {
			return fmt.Errorf("failed to read starting configuration: %w", err)
		}
		if err := s.Load(data); err != nil {
			return err
		}
	}

	if r.Template != "" {
		if err := s.ApplyTemplate(r.Template); err != nil {
			return fmt.Errorf("failed to apply template: %w", err)
		}
		slog.Debug("applied template", "template", r.Template, "label", r.Template.Label())
	}

	for _, f := range email.Fields() {
		value, ok := r.Fields[string(f)]
		if !ok {
			continue
		}
		previous, err := s.Document().Field(f)
		if err != nil {
			return fmt.Errorf("failed to set %s: %w", f, err)
		}
		if err := s.SetField(f, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", f, err)
		}
		slog.Debug("set field", "field", f, "previous", previous, "value", value)
	}

	if r.HeaderImage != "" {
		if err := r.applyHeaderImage(ctx, s, baseDir); err != nil {
			return err
		}
	}

	for i, step := range r.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.apply(s); err != nil {
			return fmt.Errorf("step %d (%s %s): %w", i+1, step.Op, step.Section, err)
		}
		slog.Debug("applied step",
			"step", i+1,
			"op", step.Op,
			"section", step.Section,
		)
	}
	return nil
}

// applyHeaderImage stores web URLs as they are and reads everything else
// through the session's image decoder.
func (r *Recipe) applyHeaderImage(ctx context.Context, s *composer.Session, baseDir string) error {
	src := r.HeaderImage
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		s.SetHeaderImage(src)
		return nil
	}

	if !datauri.IsDataURI(src) {
		src = resolve(baseDir, src)
	}
	return s.AttachImage(ctx, src)
}

func (s Step) apply(sess *composer.Session) error {
	switch s.Op {
	case OpContent:
		content, _ := s.Value.(string)
		return sess.SetSectionContent(s.Section, content)
	case OpStyle:
		if v, ok := s.Value.(string); ok && s.Key == email.StyleFontSize && !email.IsFontSize(v) {
			slog.Warn("font size is not one of the picker sizes", "section", s.Section, "size", v)
		}
		return sess.SetSectionStyle(s.Section, s.Key, s.Value)
	case OpMove:
		return sess.MoveSection(s.Section, s.Direction)
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
}

func resolve(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Export passes each requested artifact to the session's exporter in order.
func Export(ctx context.Context, s *composer.Session, formats []string) error {
	for _, format := range formats {
		var err error
		switch format {
		case FormatHTML:
			err = s.ExportHTML(ctx)
		case FormatJSON:
			err = s.ExportConfig(ctx)
		default:
			err = fmt.Errorf("unknown export format %q", format)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

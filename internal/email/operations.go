package email

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field names a top-level text attribute of the document that users edit directly.
type Field string

const (
	FieldRecipientName Field = "recipientName"
	FieldRecipientRole Field = "recipientRole"
	FieldSenderName    Field = "senderName"
	FieldSenderRole    Field = "senderRole"
	FieldCompanyName   Field = "companyName"
)

// Fields returns the editable fields in form order.
func Fields() []Field {
	return []Field{
		FieldRecipientName,
		FieldRecipientRole,
		FieldSenderName,
		FieldSenderRole,
		FieldCompanyName,
	}
}

// Direction is the way a section moves within the document.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ApplyTemplate replaces all sections with the ones generated from the
// template registered for t, reading the recipient and sender names from d.
// Other top-level fields, the subject included, are kept.
//
// TemplateCustom and unknown types have no template; the document is returned
// unchanged together with ErrUnsupportedTemplate.
func (d Document) ApplyTemplate(t TemplateType) (Document, error) {
	tmpl, ok := LookupTemplate(t)
	if !ok {
		return d.Clone(), fmt.Errorf("%w: %q", ErrUnsupportedTemplate, t)
	}

	out := d.Clone()
	out.Type = t
	out.Sections = tmpl.Sections(d.RecipientName, d.SenderName, d.SenderRole, d.CompanyName)
	return out, nil
}

// SetField sets one of the editable top-level fields.
//
// Changing the recipient or sender name also replaces the first occurrence of
// the previous name inside the greeting or signature sections. When the full
// previous name is not in the text, its first word is tried instead, so
// "Dear John," follows a rename of "John Smith". The sync is best effort: when
// neither appears, the sections are left as they are. Roles and company name
// are only woven into content by ApplyTemplate.
func (d Document) SetField(f Field, value string) (Document, error) {
	out := d.Clone()

	switch f {
	case FieldRecipientName:
		out.RecipientName = value
		out.replaceInSections(SectionGreeting, d.RecipientName, value)
	case FieldRecipientRole:
		out.RecipientRole = value
	case FieldSenderName:
		out.SenderName = value
		out.replaceInSections(SectionSignature, d.SenderName, value)
	case FieldSenderRole:
		out.SenderRole = value
	case FieldCompanyName:
		out.CompanyName = value
	default:
		return d.Clone(), fmt.Errorf("%w: %q", ErrUnknownField, f)
	}

	return out, nil
}

// Field returns the current value of f.
func (d Document) Field(f Field) (string, error) {
	switch f {
	case FieldRecipientName:
		return d.RecipientName, nil
	case FieldRecipientRole:
		return d.RecipientRole, nil
	case FieldSenderName:
		return d.SenderName, nil
	case FieldSenderRole:
		return d.SenderRole, nil
	case FieldCompanyName:
		return d.CompanyName, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
}

// MoveSection swaps the section with its neighbour in the given direction.
// Moving the first section up or the last one down is a no-op.
func (d Document) MoveSection(id string, dir Direction) (Document, error) {
	if dir != Up && dir != Down {
		return d.Clone(), fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}

	i := d.indexOf(id)
	if i < 0 {
		return d.Clone(), &SectionNotFoundError{ID: id}
	}

	out := d.Clone()
	j := i - 1
	if dir == Down {
		j = i + 1
	}
	if j < 0 || j >= len(out.Sections) {
		return out, nil
	}

	out.Sections[i], out.Sections[j] = out.Sections[j], out.Sections[i]
	return out, nil
}

// SetSectionContent replaces the content of one section. Any text is accepted,
// including the empty string.
func (d Document) SetSectionContent(id, content string) (Document, error) {
	i := d.indexOf(id)
	if i < 0 {
		return d.Clone(), &SectionNotFoundError{ID: id}
	}

	out := d.Clone()
	out.Sections[i].Content = content
	return out, nil
}

// SetSectionStyle replaces one style attribute of a section and keeps the rest.
func (d Document) SetSectionStyle(id string, key StyleKey, value any) (Document, error) {
	i := d.indexOf(id)
	if i < 0 {
		return d.Clone(), &SectionNotFoundError{ID: id}
	}

	style, err := d.Sections[i].Style.With(key, value)
	if err != nil {
		return d.Clone(), err
	}

	out := d.Clone()
	out.Sections[i].Style = style
	return out, nil
}

// SetHeaderImage sets the header image. The value is stored as given: a URL or
// a data URI, never inspected.
func (d Document) SetHeaderImage(uri string) Document {
	out := d.Clone()
	out.HeaderImage = uri
	return out
}

// replaceInSections renames old to repl in every section of type t. The caller
// owns d.Sections.
func (d *Document) replaceInSections(t SectionType, old, repl string) {
	for i := range d.Sections {
		if d.Sections[i].Type == t {
			d.Sections[i].Content = replaceName(d.Sections[i].Content, old, repl)
		}
	}
}

// replaceName replaces the first occurrence of old in text, falling back to
// the first word of a multi-word old name.
func replaceName(text, old, repl string) string {
	old = strings.TrimSpace(old)
	if old == "" || old == repl {
		return text
	}
	if strings.Contains(text, old) {
		return strings.Replace(text, old, repl, 1)
	}

	words := strings.Fields(old)
	if len(words) < 2 {
		return text
	}
	if i := indexWord(text, words[0]); i >= 0 {
		return text[:i] + repl + text[i+len(words[0]):]
	}
	return text
}

// indexWord returns the index of the first occurrence of word in text that is
// not part of a longer word, or -1.
func indexWord(text, word string) int {
	for off := 0; off <= len(text)-len(word); {
		i := strings.Index(text[off:], word)
		if i < 0 {
			return -1
		}
		start, end := off+i, off+i+len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return start
		}
		off = start + 1
	}
	return -1
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

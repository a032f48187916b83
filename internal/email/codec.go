package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// EncodeConfig serializes the document as pretty-printed JSON with two-space
// indentation. HTML characters in content are written literally. Text that
// is not valid UTF-8 cannot be represented in JSON and is rejected.
func EncodeConfig(d Document) ([]byte, error) {
	if err := checkUTF8(d); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	// Encoder always terminates the value with a newline.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeConfig parses a document produced by EncodeConfig and checks its
// structural invariants.
func DecodeConfig(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("failed to decode document: %w", err)
	}

	if err := d.Validate(); err != nil {
		return Document{}, err
	}

	return d, nil
}

func checkUTF8(d Document) error {
	fields := map[string]string{
		"type":          string(d.Type),
		"subject":       d.Subject,
		"recipientName": d.RecipientName,
		"recipientRole": d.RecipientRole,
		"senderName":    d.SenderName,
		"senderRole":    d.SenderRole,
		"companyName":   d.CompanyName,
		"headerImage":   d.HeaderImage,
	}
	for name, v := range fields {
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidEncoding, name)
		}
	}

	for _, s := range d.Sections {
		for _, v := range []string{s.ID, string(s.Type), s.Content, s.Style.Color, s.Style.FontSize, string(s.Style.Align)} {
			if !utf8.ValidString(v) {
				return fmt.Errorf("%w: section %q has text that is not valid UTF-8", ErrInvalidEncoding, s.ID)
			}
		}
	}
	return nil
}

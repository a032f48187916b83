package email

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()

	styled, _ := NewDocument().SetSectionStyle("3", StyleAlign, "right")
	styled, _ = styled.SetSectionStyle("3", StyleColor, "#ff0000")
	styled, _ = styled.SetSectionContent("4", "Thanks & see you <soon>\n-- the team")
	styled, _ = styled.MoveSection("4", Up)
	styled = styled.SetHeaderImage("data:image/png;base64,iVBORw0KGgo=")

	custom := Document{
		Type:     TemplateCustom,
		Sections: []Section{},
	}

	tests := map[string]Document{
		"default":       NewDocument(),
		"styled":        styled,
		"custom, empty": custom,
		"nil sections":  {Type: TemplateProposal},
	}

	for name, doc := range tests {
		doc := doc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			data, err := EncodeConfig(doc)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := DecodeConfig(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, doc) {
				t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, doc)
			}
		})
	}
}

func TestEncodeConfig_Format(t *testing.T) {
	t.Parallel()

	data, err := EncodeConfig(NewDocument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)

	if !strings.HasPrefix(out, "{\n  \"type\": \"meeting\",\n  \"subject\": ") {
		t.Errorf("unexpected prefix: %q", out[:60])
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("output should not end with a newline")
	}
	for _, key := range []string{`"recipientName"`, `"headerImage"`, `"sections"`, `"fontSize": "18px"`, `"bold": true`} {
		if !strings.Contains(out, key) {
			t.Errorf("output missing %s", key)
		}
	}
	// The header URL contains '&' which must not be escaped.
	if !strings.Contains(out, "w=800&auto=format") {
		t.Error("ampersand should be written literally")
	}
	if !strings.Contains(out, `Best regards,\nSarah Wilson`) {
		t.Error("newlines in content should be escaped as \\n")
	}
}

func TestEncodeConfig_RejectsInvalidUTF8(t *testing.T) {
	t.Parallel()

	content, _ := NewDocument().SetSectionContent("3", "caf\xe9 menu")
	subject := NewDocument()
	subject.Subject = "Q3 \xff"
	color, _ := NewDocument().SetSectionStyle("2", StyleColor, "#\xfe0000")

	tests := map[string]Document{
		"section content": content,
		"subject":         subject,
		"style":           color,
	}

	for name, doc := range tests {
		doc := doc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			data, err := EncodeConfig(doc)
			if !errors.Is(err, ErrInvalidEncoding) {
				t.Errorf("got %v, want ErrInvalidEncoding", err)
			}
			if data != nil {
				t.Errorf("expected no output, got %d bytes", len(data))
			}
		})
	}
}

func TestConfigRoundTrip_Unicode(t *testing.T) {
	t.Parallel()

	doc, _ := NewDocument().SetSectionContent("3", "café menu ✓ 日本")
	data, err := EncodeConfig(doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeConfig(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, doc)
	}
}

func TestDecodeConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"not json":     `{"type":`,
		"bad template": `{"type":"poster","sections":[]}`,
		"duplicate id": `{"type":"custom","sections":[{"id":"1","type":"subject"},{"id":"1","type":"closing"}]}`,
	}

	for name, input := range tests {
		if _, err := DecodeConfig([]byte(input)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	_, err := DecodeConfig([]byte(tests["duplicate id"]))
	if !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("duplicate id: got %v, want ErrInvalidDocument", err)
	}
}

package email

import "fmt"

// Align is the horizontal text alignment of a section.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// TextStyle holds the visual attributes of one section. It is a value type and
// is replaced as a whole on every edit.
type TextStyle struct {
	Color    string `json:"color"`
	FontSize string `json:"fontSize"`
	Align    Align  `json:"align"`
	Bold     bool   `json:"bold"`
}

// StyleKey names one attribute of a TextStyle.
type StyleKey string

const (
	StyleColor    StyleKey = "color"
	StyleFontSize StyleKey = "fontSize"
	StyleAlign    StyleKey = "align"
	StyleBold     StyleKey = "bold"
)

// FontSize is one of the sizes offered in the style picker.
type FontSize struct {
	Value string
	Label string
}

// FontSizes lists the sizes offered to users. Stored styles are not checked
// against it: template subjects use 18px.
var FontSizes = []FontSize{
	{Value: "14px", Label: "Small"},
	{Value: "16px", Label: "Medium"},
	{Value: "20px", Label: "Large"},
	{Value: "24px", Label: "Extra Large"},
}

// IsFontSize reports whether v is one of FontSizes.
func IsFontSize(v string) bool {
	for _, fs := range FontSizes {
		if fs.Value == v {
			return true
		}
	}
	return false
}

// DefaultTextStyle is the style of every generated section except the subject.
func DefaultTextStyle() TextStyle {
	return TextStyle{
		Color:    "#374151",
		FontSize: "16px",
		Align:    AlignLeft,
		Bold:     false,
	}
}

// SubjectTextStyle is the style of a generated subject section.
func SubjectTextStyle() TextStyle {
	s := DefaultTextStyle()
	s.FontSize = "18px"
	s.Bold = true
	return s
}

// With returns a copy of s with one attribute replaced. Color, font size and
// alignment take a string; bold takes a bool.
func (s TextStyle) With(key StyleKey, value any) (TextStyle, error) {
	switch key {
	case StyleColor, StyleFontSize, StyleAlign:
		v, ok := value.(string)
		if !ok {
			return s, fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidStyleValue, key, value)
		}
		switch key {
		case StyleColor:
			s.Color = v
		case StyleFontSize:
			s.FontSize = v
		default:
			s.Align = Align(v)
		}
	case StyleBold:
		v, ok := value.(bool)
		if !ok {
			return s, fmt.Errorf("%w: %s expects a bool, got %T", ErrInvalidStyleValue, key, value)
		}
		s.Bold = v
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownStyleKey, key)
	}
	return s, nil
}

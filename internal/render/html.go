// Package render serializes an email document into a self-contained static
// HTML page.
package render

import (
	"fmt"
	"strings"

	"github.com/shineum/email-composer/internal/email"
)

// layoutCSS holds the fixed page rules shared by every document.
const layoutCSS = `    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header-image { width: 100%; height: 200px; object-fit: cover; border-radius: 8px; }
    .email-content { background: #ffffff; padding: 20px; border-radius: 8px; margin: 20px 0; }
    .signature { border-top: 1px solid #eee; margin-top: 20px; padding-top: 20px; }
`

// HTML renders the document as a complete HTML page. Each section gets a CSS
// rule scoped to its id and a block in document order.
//
// Content is written as is apart from newlines, which become <br> so that
// multi-line text such as a signature keeps its lines. No other escaping is
// applied, and the output is deterministic for a given document.
func HTML(doc email.Document) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html>\n")
	b.WriteString("<head>\n")
	b.WriteString("  <meta charset=\"UTF-8\">\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", doc.Subject)
	b.WriteString("  <style>\n")
	b.WriteString(layoutCSS)
	for _, s := range doc.Sections {
		writeSectionRule(&b, s)
	}
	b.WriteString("  </style>\n")
	b.WriteString("</head>\n")
	b.WriteString("<body>\n")
	b.WriteString("  <div class=\"container\">\n")
	fmt.Fprintf(&b, "    <img src=\"%s\" alt=\"Header\" class=\"header-image\">\n", doc.HeaderImage)
	b.WriteString("    <div class=\"email-content\">\n")
	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "      <div class=\"%s\">%s</div>\n", ClassName(s.ID), LineBreaks(s.Content))
	}
	b.WriteString("    </div>\n")
	b.WriteString("  </div>\n")
	b.WriteString("</body>\n")
	b.WriteString("</html>\n")

	return b.String()
}

// ClassName returns the CSS class that scopes a section's rule.
func ClassName(sectionID string) string {
	return "section-" + sectionID
}

// LineBreaks replaces every newline in text with a <br> element.
func LineBreaks(text string) string {
	return strings.ReplaceAll(text, "\n", "<br>")
}

func writeSectionRule(b *strings.Builder, s email.Section) {
	weight := "normal"
	if s.Style.Bold {
		weight = "bold"
	}

	fmt.Fprintf(b, "    .%s {\n", ClassName(s.ID))
	fmt.Fprintf(b, "      color: %s;\n", s.Style.Color)
	fmt.Fprintf(b, "      font-size: %s;\n", s.Style.FontSize)
	fmt.Fprintf(b, "      text-align: %s;\n", s.Style.Align)
	fmt.Fprintf(b, "      font-weight: %s;\n", weight)
	b.WriteString("      margin-bottom: 1em;\n")
	b.WriteString("    }\n")
}

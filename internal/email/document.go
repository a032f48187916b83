// Package email defines the business email document model: an ordered list of
// independently styled sections plus the sender and recipient metadata used to
// fill template placeholders.
//
// Every operation on a Document returns a new Document and leaves the receiver
// untouched. A failed operation returns an unchanged copy with its error.
package email

import (
	"fmt"
	"slices"
	"strings"
)

// TemplateType identifies the template a document was generated from.
type TemplateType string

const (
	TemplateMeeting      TemplateType = "meeting"
	TemplateProposal     TemplateType = "proposal"
	TemplateFollowUp     TemplateType = "followup"
	TemplateIntroduction TemplateType = "introduction"
	TemplateCustom       TemplateType = "custom"
)

// TemplateTypes returns every template type in the order they are offered to users.
func TemplateTypes() []TemplateType {
	return []TemplateType{
		TemplateMeeting,
		TemplateProposal,
		TemplateFollowUp,
		TemplateIntroduction,
		TemplateCustom,
	}
}

// Label returns the human-readable name of the template type.
func (t TemplateType) Label() string {
	switch t {
	case TemplateMeeting:
		return "Meeting Request"
	case TemplateProposal:
		return "Business Proposal"
	case TemplateFollowUp:
		return "Follow-up"
	case TemplateIntroduction:
		return "Introduction"
	case TemplateCustom:
		return "Custom Template"
	default:
		return string(t)
	}
}

// Valid reports whether t is one of the known template types.
func (t TemplateType) Valid() bool {
	return slices.Contains(TemplateTypes(), t)
}

// SectionType is the role a section plays in the email body.
type SectionType string

const (
	SectionSubject   SectionType = "subject"
	SectionGreeting  SectionType = "greeting"
	SectionContent   SectionType = "content"
	SectionClosing   SectionType = "closing"
	SectionSignature SectionType = "signature"
)

// SectionTypes returns the section types in template order.
func SectionTypes() []SectionType {
	return []SectionType{
		SectionSubject,
		SectionGreeting,
		SectionContent,
		SectionClosing,
		SectionSignature,
	}
}

// Valid reports whether t is one of the known section types.
func (t SectionType) Valid() bool {
	return slices.Contains(SectionTypes(), t)
}

// Section is one ordered, independently styled block of the email.
type Section struct {
	ID      string      `json:"id"`
	Type    SectionType `json:"type"`
	Content string      `json:"content"`
	Style   TextStyle   `json:"style"`
}

// Document is the email being authored. Sections are kept in rendering order.
type Document struct {
	Type          TemplateType `json:"type"`
	Subject       string       `json:"subject"`
	RecipientName string       `json:"recipientName"`
	RecipientRole string       `json:"recipientRole"`
	SenderName    string       `json:"senderName"`
	SenderRole    string       `json:"senderRole"`
	CompanyName   string       `json:"companyName"`
	HeaderImage   string       `json:"headerImage"`
	Sections      []Section    `json:"sections"`
}

// defaultHeaderImage is the banner shown before the user picks their own.
const defaultHeaderImage = "https://images.unsplash.com/photo-1486406146926-c627a92ad1ab?w=800&auto=format&fit=crop&q=80"

// NewDocument returns the document a fresh editor session starts with: a
// customised meeting request from Sarah Wilson to John Smith.
func NewDocument() Document {
	return Document{
		Type:          TemplateMeeting,
		Subject:       "Meeting Request: Quarterly Review Discussion",
		RecipientName: "John Smith",
		RecipientRole: "Project Manager",
		SenderName:    "Sarah Wilson",
		SenderRole:    "Business Development Manager",
		CompanyName:   "Tech Solutions Inc.",
		HeaderImage:   defaultHeaderImage,
		Sections: []Section{
			{
				ID:      "1",
				Type:    SectionSubject,
				Content: "Meeting Request: Quarterly Review Discussion",
				Style:   SubjectTextStyle(),
			},
			{
				ID:      "2",
				Type:    SectionGreeting,
				Content: "Dear John,",
				Style:   DefaultTextStyle(),
			},
			{
				ID:      "3",
				Type:    SectionContent,
				Content: "I hope this email finds you well. I would like to schedule a meeting to discuss our quarterly review. Your insights would be valuable for our upcoming planning phase.",
				Style:   DefaultTextStyle(),
			},
			{
				ID:      "4",
				Type:    SectionClosing,
				Content: "Looking forward to your response.",
				Style:   DefaultTextStyle(),
			},
			{
				ID:      "5",
				Type:    SectionSignature,
				Content: "Best regards,\nSarah Wilson\nBusiness Development Manager\nTech Solutions Inc.",
				Style:   DefaultTextStyle(),
			},
		},
	}
}

// Clone returns a deep copy of the document. Sections are copied by value, so
// edits to the clone never reach the original.
func (d Document) Clone() Document {
	if d.Sections != nil {
		d.Sections = slices.Clone(d.Sections)
	}
	return d
}

// Section returns the section with the given id.
func (d Document) Section(id string) (Section, bool) {
	i := d.indexOf(id)
	if i < 0 {
		return Section{}, false
	}
	return d.Sections[i], true
}

// SectionsOfType returns every section of type t in document order.
func (d Document) SectionsOfType(t SectionType) []Section {
	var out []Section
	for _, s := range d.Sections {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the structural invariants of the document: a known template
// type, and sections with unique non-empty ids and known types.
func (d Document) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("%w: unknown template type %q", ErrInvalidDocument, d.Type)
	}

	seen := make(map[string]struct{}, len(d.Sections))
	for i, s := range d.Sections {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: section %d has no id", ErrInvalidDocument, i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate section id %q", ErrInvalidDocument, s.ID)
		}
		seen[s.ID] = struct{}{}

		if !s.Type.Valid() {
			return fmt.Errorf("%w: section %q has unknown type %q", ErrInvalidDocument, s.ID, s.Type)
		}
	}

	return nil
}

func (d Document) indexOf(id string) int {
	return slices.IndexFunc(d.Sections, func(s Section) bool { return s.ID == id })
}

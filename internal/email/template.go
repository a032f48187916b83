package email

import "strings"

// RecipientPlaceholder is the token in a template greeting that is replaced
// with the recipient's name. Other bracketed tokens are left for the author.
const RecipientPlaceholder = "[Name]"

// Template is the static boilerplate used to generate a document's sections.
type Template struct {
	Subject         string
	Greeting        string
	Content         string
	Closing         string
	SignaturePrefix string
}

var templates = map[TemplateType]Template{
	TemplateMeeting: {
		Subject:         "Meeting Request: [Topic] Discussion",
		Greeting:        "Dear [Name],",
		Content:         "I hope this email finds you well. I would like to schedule a meeting to discuss [topic]. Your insights would be valuable for our upcoming project.",
		Closing:         "Looking forward to your response.",
		SignaturePrefix: "Best regards,",
	},
	TemplateProposal: {
		Subject:         "Business Proposal: [Project Name]",
		Greeting:        "Dear [Name],",
		Content:         "I am writing to present a proposal regarding [project]. Our team has developed a comprehensive solution that addresses your specific needs.",
		Closing:         "I look forward to discussing this proposal in detail.",
		SignaturePrefix: "Kind regards,",
	},
	TemplateFollowUp: {
		Subject:         "Follow-up: [Previous Meeting/Discussion]",
		Greeting:        "Hi [Name],",
		Content:         "I wanted to follow up on our previous discussion about [topic]. Have you had a chance to review the information we discussed?",
		Closing:         "Thank you for your time.",
		SignaturePrefix: "Best,",
	},
	TemplateIntroduction: {
		Subject:         "Introduction: [Your Company] Services",
		Greeting:        "Dear [Name],",
		Content:         "I am reaching out to introduce [Company Name] and our services. We specialize in [industry/service] and have helped many businesses like yours achieve their goals.",
		Closing:         "I would welcome the opportunity to discuss how we can help your business.",
		SignaturePrefix: "Warm regards,",
	},
}

// LookupTemplate returns the template registered for t. There is no template
// for TemplateCustom.
func LookupTemplate(t TemplateType) (Template, bool) {
	tmpl, ok := templates[t]
	return tmpl, ok
}

// Sections builds the five template sections, in fixed order with ids "1" to
// "5", filling the recipient placeholder and the signature block from the
// given names.
func (t Template) Sections(recipientName, senderName, senderRole, companyName string) []Section {
	signature := strings.Join([]string{t.SignaturePrefix, senderName, senderRole, companyName}, "\n")

	return []Section{
		{ID: "1", Type: SectionSubject, Content: t.Subject, Style: SubjectTextStyle()},
		{ID: "2", Type: SectionGreeting, Content: strings.Replace(t.Greeting, RecipientPlaceholder, recipientName, 1), Style: DefaultTextStyle()},
		{ID: "3", Type: SectionContent, Content: t.Content, Style: DefaultTextStyle()},
		{ID: "4", Type: SectionClosing, Content: t.Closing, Style: DefaultTextStyle()},
		{ID: "5", Type: SectionSignature, Content: signature, Style: DefaultTextStyle()},
	}
}

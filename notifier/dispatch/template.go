package dispatch

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/rakeshkumar9142/OpenStart-sub000/notifier"
)

// WelcomeSubject is the subject line of every welcome email.
const WelcomeSubject = "Welcome to OpenStart!"

const welcomeText = `Hi {{.FirstName}},

Welcome to OpenStart! We're thrilled to have you join our community of student entrepreneurs.

Here's what you can look forward to:
- Mentorship from founders and industry experts
- Hands-on workshops and startup challenges
- A network of ambitious students building real ventures

Keep an eye on your inbox for upcoming events and opportunities.

Cheers,
The OpenStart Team
`

const welcomeHTML = `<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2937; line-height: 1.6;">
    <div style="max-width: 600px; margin: 0 auto; padding: 24px;">
      <h1 style="color: #4f46e5;">Welcome to OpenStart, {{.FirstName}}!</h1>
      <p>Hi {{.FirstName}},</p>
      <p>We're thrilled to have you join our community of student entrepreneurs.</p>
      <p>Here's what you can look forward to:</p>
      <ul>
        <li>Mentorship from founders and industry experts</li>
        <li>Hands-on workshops and startup challenges</li>
        <li>A network of ambitious students building real ventures</li>
      </ul>
      <p>Keep an eye on your inbox for upcoming events and opportunities.</p>
      <p>Cheers,<br>The OpenStart Team</p>
    </div>
  </body>
</html>
`

// Template renders the welcome email. Only the recipient's first name is
// interpolated; the HTML body escapes it.
type Template struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

// Rendered is a rendered email ready to be wrapped into a Message.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// NewWelcomeTemplate parses the built-in welcome template.
func NewWelcomeTemplate() *Template {
	return &Template{
		subject: WelcomeSubject,
		text:    texttemplate.Must(texttemplate.New("welcome.txt").Parse(welcomeText)),
		html:    htmltemplate.Must(htmltemplate.New("welcome.html").Parse(welcomeHTML)),
	}
}

// Render fills the template for recipient.
func (t *Template) Render(recipient notifier.RecipientInfo) (Rendered, error) {
	data := struct{ FirstName string }{FirstName: recipient.FirstName}

	var text, html bytes.Buffer
	if err := t.text.Execute(&text, data); err != nil {
		return Rendered{}, err
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Rendered{}, err
	}
	return Rendered{Subject: t.subject, Text: text.String(), HTML: html.String()}, nil
}

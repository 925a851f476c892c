package mail

import (
	"fmt"

	"github.com/flosch/pongo2/v6"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
)

type templateSource struct {
	subject string
	html    string
	text    string
}

var sources = map[domain.Template]templateSource{
	domain.TemplateVerifyEmail: {
		subject: "Verify your HypertroQ email",
		html: `<p>Hi {{ full_name }},</p>
<p>Welcome to HypertroQ. Confirm your email address to finish setting up your account.</p>
<p><a href="{{ link }}">Verify email</a></p>
<p>This link expires in {{ expires_in }}.</p>`,
		text: "Hi {{ full_name }},\n\nConfirm your email address: {{ link }}\n\nThis link expires in {{ expires_in }}.",
	},
	domain.TemplatePasswordReset: {
		subject: "Reset your HypertroQ password",
		html: `<p>Hi {{ full_name }},</p>
<p>We received a request to reset your password.</p>
<p><a href="{{ link }}">Choose a new password</a></p>
<p>This link expires in {{ expires_in }}. If you did not ask for a reset you can ignore this email.</p>`,
		text: "Hi {{ full_name }},\n\nReset your password: {{ link }}\n\nThis link expires in {{ expires_in }}. If you did not ask for a reset you can ignore this email.",
	},
	domain.TemplateWelcome: {
		subject: "Welcome to HypertroQ",
		html: `<p>Hi {{ full_name }},</p>
<p>Your email is verified. Time to build your first program.</p>
<p><a href="{{ link }}">Open HypertroQ</a></p>`,
		text: "Hi {{ full_name }},\n\nYour email is verified. Open HypertroQ: {{ link }}",
	},
	domain.TemplatePasswordChanged: {
		subject: "Your HypertroQ password was changed",
		html: `<p>Hi {{ full_name }},</p>
<p>The password for your account was just changed. If this was not you, reset your password immediately.</p>`,
		text: "Hi {{ full_name }},\n\nThe password for your account was just changed. If this was not you, reset your password immediately.",
	},
	domain.TemplateDeletionRequested: {
		subject: "Your HypertroQ account is scheduled for deletion",
		html: `<p>Hi {{ full_name }},</p>
<p>Your account will be permanently deleted on {{ deletion_date }}.</p>
<p>Changed your mind? <a href="{{ link }}">Sign in</a> and cancel the deletion before then.</p>`,
		text: "Hi {{ full_name }},\n\nYour account will be permanently deleted on {{ deletion_date }}. Sign in to cancel: {{ link }}",
	},
}

type compiled struct {
	subject string
	html    *pongo2.Template
	text    *pongo2.Template
}

// Renderer turns notifications into messages.
type Renderer struct {
	templates map[domain.Template]compiled
}

// NewRenderer compiles every known template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[domain.Template]compiled, len(sources))}
	for name, src := range sources {
		html, err := pongo2.FromString(src.html)
		if err != nil {
			return nil, fmt.Errorf("compile %s html: %w", name, err)
		}
		text, err := pongo2.FromString(src.text)
		if err != nil {
			return nil, fmt.Errorf("compile %s text: %w", name, err)
		}
		r.templates[name] = compiled{subject: src.subject, html: html, text: text}
	}
	return r, nil
}

// Render produces the message for n.
func (r *Renderer) Render(n domain.Notification) (Message, error) {
	tpl, ok := r.templates[n.Template]
	if !ok {
		return Message{}, fmt.Errorf("unknown template %q", n.Template)
	}

	data := pongo2.Context{}
	for k, v := range n.Data {
		data[k] = v
	}

	html, err := tpl.html.Execute(data)
	if err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", n.Template, err)
	}
	text, err := tpl.text.Execute(data)
	if err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", n.Template, err)
	}

	return Message{To: n.To, Subject: tpl.subject, HTMLBody: html, TextBody: text}, nil
}

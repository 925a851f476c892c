package domain

// Template identifies a transactional email.
type Template string

const (
	TemplateVerifyEmail       Template = "verify_email"
	TemplatePasswordReset     Template = "password_reset"
	TemplateWelcome           Template = "welcome"
	TemplatePasswordChanged   Template = "password_changed"
	TemplateDeletionRequested Template = "deletion_requested"
)

// Notification is a request to email a user.
type Notification struct {
	To       string
	Template Template
	Data     map[string]any
}

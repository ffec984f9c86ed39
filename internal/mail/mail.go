// Package mail renders and delivers transactional email. Delivery failures
// are the collaborator's problem: callers log and move on, a failed
// notification never fails the request that triggered it.
package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	gomail "gopkg.in/gomail.v2"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Template names the known email templates.
type Template string

const (
	TemplateForgotPassword       Template = "forgot_password.tmpl"
	TemplateResetPasswordSuccess Template = "reset_password_success.tmpl"
)

var subjectByTemplate = map[Template]string{
	TemplateForgotPassword:       "Reset your password",
	TemplateResetPasswordSuccess: "Your password has been successfully reset",
}

// Sender delivers a rendered template to one recipient.
type Sender interface {
	Send(to string, tmpl Template, data any) error
}

// Config holds SMTP connection details and the sender address.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTP is the gomail-backed Sender.
type SMTP struct {
	cfg       Config
	templates *template.Template
}

func NewSMTP(cfg Config) (*SMTP, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}

	t, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &SMTP{cfg: cfg, templates: t}, nil
}

func (s *SMTP) Send(to string, tmpl Template, data any) error {
	subject, ok := subjectByTemplate[tmpl]
	if !ok {
		return fmt.Errorf("unknown template %q", tmpl)
	}

	body, err := render(s.templates, tmpl, data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	return dialer.DialAndSend(msg)
}

func render(templates *template.Template, tmpl Template, data any) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := templates.ExecuteTemplate(buf, string(tmpl), data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl, err)
	}
	return buf.String(), nil
}

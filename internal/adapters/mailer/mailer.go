// Package mailer delivers magic-link sign-in emails.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/budgetndiostory/bns-api/internal/ports"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds SMTP settings for SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SiteName string
}

func (c SMTPConfig) validate() error {
	switch {
	case c.Host == "":
		return errors.New("smtp host is required")
	case c.Port == 0:
		return errors.New("smtp port is required")
	case c.From == "":
		return errors.New("smtp from address is required")
	}
	return nil
}

// dialer is the part of *gomail.Dialer SMTPMailer uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends sign-in links through an SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer dialer
}

// NewSMTPMailer validates cfg and builds a gomail dialer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Budget Ndio Story"
	}
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// SendSignIn sends the link as HTML with a plain-text alternative.
func (m *SMTPMailer) SendSignIn(ctx context.Context, msg ports.SignInEmail) error {
	if msg.To == "" {
		return errors.New("no recipient specified")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	html, text, err := renderSignIn(m.cfg.SiteName, msg)
	if err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.cfg.From)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", "Sign in to "+m.cfg.SiteName)
	gm.SetBody("text/html", html)
	gm.AddAlternative("text/plain", text)

	if err = m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send sign-in email: %w", err)
	}
	return nil
}

var signInHTML = template.Must(template.New("signin").Parse(
	`<p>Sign in to {{.Site}}</p>` +
		`<p><a href="{{.URL}}">Sign in</a></p>` +
		`<p>This link expires at {{.Expires}} and can be used once.</p>` +
		`<p>If you did not request this email you can ignore it.</p>`))

func renderSignIn(site string, msg ports.SignInEmail) (string, string, error) {
	data := struct {
		Site    string
		URL     string
		Expires string
	}{site, msg.URL, msg.Expires.UTC().Format(time.RFC1123)}

	var b strings.Builder
	if err := signInHTML.Execute(&b, data); err != nil {
		return "", "", fmt.Errorf("render sign-in email: %w", err)
	}
	text := fmt.Sprintf("Sign in to %s\n\n%s\n\nThis link expires at %s and can be used once.\n",
		site, msg.URL, data.Expires)
	return b.String(), text, nil
}

// LogMailer writes the sign-in link to the log instead of sending it. Development only.
type LogMailer struct {
	Logger *slog.Logger
}

func (l LogMailer) SendSignIn(ctx context.Context, msg ports.SignInEmail) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "sign-in link", "to", msg.To, "url", msg.URL, "expires", msg.Expires)
	return nil
}

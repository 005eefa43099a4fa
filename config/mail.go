package config

import (
	"fmt"
	"strings"
)

// MailTransport selects how sign-in emails leave the process.
type MailTransport string

const (
	// MailTransportSMTP delivers through an SMTP relay.
	MailTransportSMTP MailTransport = "smtp"
	// MailTransportLog writes the sign-in link to the log (development only).
	MailTransportLog MailTransport = "log"
)

// UnmarshalText implements encoding.TextUnmarshaler for MailTransport.
func (m *MailTransport) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "smtp", "log":
		*m = MailTransport(v)
		return nil
	default:
		return fmt.Errorf("invalid MailTransport: %q (valid options: smtp, log)", v)
	}
}

// MailConfig contains outbound email configuration. Loaded with the MAIL_ prefix.
type MailConfig struct {
	Transport MailTransport `env:"TRANSPORT" envDefault:"log"`
	Host      string        `env:"HOST"      envDefault:"localhost"`
	Port      int           `env:"PORT"      envDefault:"587"`
	Username  string        `env:"USERNAME"`
	Password  string        `env:"PASSWORD"`
	From      string        `env:"FROM"      envDefault:"Budget Ndio Story <no-reply@budgetndiostory.org>"`
	SiteName  string        `env:"SITE_NAME" envDefault:"Budget Ndio Story"`
}

// Sanitize applies guardrails to mail configuration values.
func (m *MailConfig) Sanitize() {
	m.Host = strings.TrimSpace(m.Host)
	if m.Port <= 0 || m.Port > 65535 {
		m.Port = 587
	}
	if m.Transport == "" {
		m.Transport = MailTransportLog
	}
}

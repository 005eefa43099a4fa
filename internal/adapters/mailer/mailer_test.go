package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/budgetndiostory/bns-api/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func testMailer(t *testing.T, d dialer) *SMTPMailer {
	t.Helper()
	m, err := NewSMTPMailer(SMTPConfig{Host: "smtp.example.test", Port: 587, From: "no-reply@bns.test"})
	require.NoError(t, err)
	m.dialer = d
	return m
}

func TestNewSMTPMailer_Validation(t *testing.T) {
	_, err := NewSMTPMailer(SMTPConfig{Port: 587, From: "x@y"})
	assert.ErrorContains(t, err, "host")
	_, err = NewSMTPMailer(SMTPConfig{Host: "h", From: "x@y"})
	assert.ErrorContains(t, err, "port")
	_, err = NewSMTPMailer(SMTPConfig{Host: "h", Port: 25})
	assert.ErrorContains(t, err, "from")
}

func TestSMTPMailer_SendSignIn(t *testing.T) {
	d := &captureDialer{}
	m := testMailer(t, d)
	link := "https://bns.test/auth/callback/email?email=a%40x.com&token=abc"

	err := m.SendSignIn(context.Background(), ports.SignInEmail{
		To: "a@x.com", URL: link, Expires: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{"a@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Sign in to Budget Ndio Story"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/plain")
	assert.Contains(t, buf.String(), "text/html")
}

func TestSMTPMailer_SendSignIn_Errors(t *testing.T) {
	m := testMailer(t, &captureDialer{err: errors.New("connection refused")})

	err := m.SendSignIn(context.Background(), ports.SignInEmail{To: "a@x.com", URL: "u"})
	assert.ErrorContains(t, err, "send sign-in email")

	err = m.SendSignIn(context.Background(), ports.SignInEmail{URL: "u"})
	assert.ErrorContains(t, err, "no recipient")
}

func TestRenderSignIn_EscapesURL(t *testing.T) {
	html, text, err := renderSignIn("BNS", ports.SignInEmail{URL: `https://x/?a=1&b="2"`})
	require.NoError(t, err)
	assert.NotContains(t, html, `"2"`)
	assert.Contains(t, text, `https://x/?a=1&b="2"`)
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	l := LogMailer{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, l.SendSignIn(context.Background(), ports.SignInEmail{To: "a@x.com", URL: "https://link"}))
	assert.Contains(t, buf.String(), "https://link")
	assert.Contains(t, buf.String(), "sign-in link")
}

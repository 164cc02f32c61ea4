package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	addr     string
	username string
	password string
	from     string
	ttl      time.Duration
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer constructs an SMTPMailer. Authentication is skipped when
// username is empty.
func NewSMTPMailer(addr, username, password, from string, codeTTL time.Duration) *SMTPMailer {
	return &SMTPMailer{
		addr:     addr,
		username: username,
		password: password,
		from:     from,
		ttl:      codeTTL,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) SendTwoFactorCode(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.username != "" {
		host, _, err := net.SplitHostPort(m.addr)
		if err != nil {
			return fmt.Errorf("smtp: invalid address %q: %w", m.addr, err)
		}
		auth = smtp.PlainAuth("", m.username, m.password, host)
	}

	if err := m.send(m.addr, auth, envelopeAddress(m.from), []string{to}, m.message(to, code)); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(to, code string) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + codeSubject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(codeHTML(code, m.ttl))
	return []byte(b.String())
}

// envelopeAddress extracts the bare address from "Name <addr>".
func envelopeAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return from
}

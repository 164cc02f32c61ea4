// Package mailer delivers two-factor verification codes by email.
package mailer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/response-desk/internal/config"
)

// Mailer sends a verification code to one recipient. Implementations must
// never log the code.
type Mailer interface {
	SendTwoFactorCode(ctx context.Context, to, code string) error
}

const codeSubject = "Your verification code"

func codeHTML(code string, ttl time.Duration) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 400px; margin: 0 auto; padding: 24px;">
  <h2 style="margin: 0 0 8px;">Verification Code</h2>
  <p style="color: #666; margin: 0 0 24px;">Enter this code to verify your identity:</p>
  <div style="background: #f4f4f5; border-radius: 8px; padding: 16px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 8px;">%s</div>
  <p style="color: #666; margin: 24px 0 0; font-size: 14px;">This code expires in %d minutes.</p>
</div>`, code, int(ttl/time.Minute))
}

// New picks a delivery channel from configuration: Resend when an API key
// is set, SMTP when an address is set, otherwise a mailer that drops codes.
func New(cfg config.MailConfig, codeTTL time.Duration, logger *zap.Logger) Mailer {
	switch {
	case cfg.ResendAPIKey != "":
		return NewResendMailer(cfg.ResendURL, cfg.ResendAPIKey, cfg.From, codeTTL, nil)
	case cfg.SMTPAddr != "":
		return NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From, codeTTL)
	default:
		logger.Warn("no mail transport configured, verification codes will not be delivered")
		return NewDiscardMailer(logger)
	}
}

// DiscardMailer accepts every send and records only the recipient.
type DiscardMailer struct {
	logger *zap.Logger
}

// NewDiscardMailer constructs a DiscardMailer.
func NewDiscardMailer(logger *zap.Logger) *DiscardMailer {
	return &DiscardMailer{logger: logger}
}

func (m *DiscardMailer) SendTwoFactorCode(_ context.Context, to, _ string) error {
	m.logger.Info("verification code not delivered", zap.String("to", to))
	return nil
}

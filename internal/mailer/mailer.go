package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/Raymond16-cyber/aura-backend/internal/config"
)

// Mailer is the outbound notification gateway. Implementations are blocking
// and fallible; a timeout counts as a delivery failure.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, name, verifyLink, token string) error
	SendPasswordResetEmail(ctx context.Context, to, resetLink string) error
	SendPasswordResetSuccessEmail(ctx context.Context, to, loginLink string) error
	SendWaitlistConfirmation(ctx context.Context, to, name, refCode, dashboardLink, referralLink string) error
	SendWaitlistFollowUp(ctx context.Context, to, name, refCode, referralLink string) error
}

type smtpMailer struct {
	client *mail.Client
	from   string
	logger *zap.SugaredLogger
}

// NewSMTPMailer builds a Mailer over a plain SMTP account. The configured
// timeout bounds both dialing and sending.
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.SugaredLogger) (Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(time.Duration(cfg.TimeoutS)*time.Second),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &smtpMailer{client: client, from: cfg.From, logger: logger}, nil
}

func (m *smtpMailer) SendVerificationEmail(ctx context.Context, to, name, verifyLink, token string) error {
	html, text := verificationBody(name, verifyLink, token)
	err := m.send(ctx, to, "Verify Your Email", html, text)
	if err != nil {
		// Manual fallback so an operator can still hand over the link.
		m.logger.Warnw("verification email failed, manual link follows",
			"to", to, "link", verifyLink, "error", err)
	}
	return err
}

func (m *smtpMailer) SendPasswordResetEmail(ctx context.Context, to, resetLink string) error {
	html, text := passwordResetBody(to, resetLink)
	err := m.send(ctx, to, "Password Reset Request", html, text)
	if err != nil {
		m.logger.Warnw("password reset email failed, manual link follows",
			"to", to, "link", resetLink, "error", err)
	}
	return err
}

func (m *smtpMailer) SendPasswordResetSuccessEmail(ctx context.Context, to, loginLink string) error {
	html, text := passwordResetSuccessBody(loginLink)
	err := m.send(ctx, to, "Password Reset Successful", html, text)
	if err != nil {
		m.logger.Warnw("password reset success email failed",
			"to", to, "link", loginLink, "error", err)
	}
	return err
}

func (m *smtpMailer) SendWaitlistConfirmation(ctx context.Context, to, name, refCode, dashboardLink, referralLink string) error {
	html, text := waitlistConfirmationBody(name, refCode, dashboardLink, referralLink)
	err := m.send(ctx, to, "You're on the Aura waitlist", html, text)
	if err != nil {
		m.logger.Warnw("waitlist confirmation email failed, manual link follows",
			"to", to, "referralLink", referralLink, "error", err)
	}
	return err
}

func (m *smtpMailer) SendWaitlistFollowUp(ctx context.Context, to, name, refCode, referralLink string) error {
	html, text := waitlistFollowUpBody(name, refCode, referralLink)
	err := m.send(ctx, to, "Your spot on the Aura waitlist", html, text)
	if err != nil {
		m.logger.Warnw("waitlist follow-up email failed",
			"to", to, "referralLink", referralLink, "error", err)
	}
	return err
}

func (m *smtpMailer) send(ctx context.Context, to, subject, html, text string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat("Aura", m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	m.logger.Infow("email sent", "to", to, "subject", subject)
	return nil
}

package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/gymqrs/backend/internal/config"
)

// Sender delivers one-time passwords to users. Delivery is best-effort; the
// caller logs failures and moves on.
type Sender interface {
	SendOTP(ctx context.Context, to, code string, expiresIn time.Duration) error
}

// SMTPSender sends OTP mails through an SMTP relay using go-mail.
type SMTPSender struct {
	config *config.SMTPConfig
	log    *zap.Logger
}

func NewSMTPSender(config *config.SMTPConfig, log *zap.Logger) *SMTPSender {
	return &SMTPSender{
		config: config,
		log:    log,
	}
}

func (s *SMTPSender) SendOTP(ctx context.Context, to, code string, expiresIn time.Duration) error {
	msg := mail.NewMsg()

	if s.config.FromName != "" {
		if err := msg.FromFormat(s.config.FromName, s.config.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.config.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject("Your gym verification code")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Your verification code is %s. It expires in %d minutes.",
		code, int(expiresIn.Minutes())))

	opts := []mail.Option{
		mail.WithPort(s.config.Port),
	}
	if s.config.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Port 465 speaks implicit TLS, everything else STARTTLS.
		if s.config.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if s.config.Username != "" && s.config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	client, err := mail.NewClient(s.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// LogSender stands in when SMTP is disabled, writing the code to the log
// instead of a mailbox. Development only.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendOTP(_ context.Context, to, code string, expiresIn time.Duration) error {
	s.log.Info("otp email suppressed, smtp disabled",
		zap.String("to", to),
		zap.String("code", code),
		zap.Duration("expires_in", expiresIn))
	return nil
}

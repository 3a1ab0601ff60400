package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/mealmatch/mealmatch-api/internal/config"
	"github.com/mealmatch/mealmatch-api/internal/service"
)

// SMTPNotifier delivers verification links over SMTP. It implements
// service.EmailVerificationNotifier.
type SMTPNotifier struct {
	client *mail.Client
	from   string
}

func NewSMTPNotifier(cfg *config.Config) (*SMTPNotifier, error) {
	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUser),
		mail.WithPassword(cfg.SMTPPassword),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPNotifier{client: client, from: cfg.SMTPFrom}, nil
}

func (n *SMTPNotifier) SendEmailVerification(ctx context.Context, notification service.VerificationNotification) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(notification.Email); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject("Confirm your email address")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Welcome!\n\nConfirm your email address by opening the link below:\n\n%s\n\nThe link expires at %s.\n",
		notification.VerificationURL,
		notification.ExpiresAt.Format("2006-01-02 15:04 MST"),
	))
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

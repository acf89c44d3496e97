package notifier

import (
	"context"
	"crypto/tls"
	"fmt"

	"edgeguard/internal/models"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type SMTPNotifier struct {
	config models.MailerConfiguration
}

func NewSMTPNotifier(config models.MailerConfiguration) *SMTPNotifier {
	return &SMTPNotifier{config: config}
}

func (s *SMTPNotifier) clientOptions() []mail.Option {
	options := []mail.Option{mail.WithPort(s.config.Port)}

	if s.config.Username != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	if s.config.EnableTLS {
		options = append(options, mail.WithTLSPortPolicy(mail.TLSMandatory))
	} else {
		options = append(options, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.config.SkipVerifyTLS {
		options = append(options, mail.WithTLSConfig(&tls.Config{
			ServerName:         s.config.Host,
			InsecureSkipVerify: true, //nolint:gosec // opt-in for self-signed relays
		}))
	}

	return options
}

func (s *SMTPNotifier) buildMessage(to string, subject string, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.config.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (s *SMTPNotifier) NotifyFromTemplate(
	ctx context.Context,
	to string,
	subject string,
	templateName string,
	data any,
) error {
	body, err := RenderTemplate(templateName, data)
	if err != nil {
		return err
	}

	msg, err := s.buildMessage(to, subject, body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.config.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err = client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	zap.L().Debug("Mail sent", zap.String("template", templateName), zap.String("to", to))
	return nil
}

package core

import (
	"fmt"

	"edgeguard/internal/models"
	"edgeguard/internal/notifier"
)

// NewNotifier picks the delivery channel for one-time codes.
func NewNotifier(config models.NotifierConfiguration) (notifier.INotifier, error) {
	switch {
	case config.Type == "smtp" && config.SMTP != nil:
		return notifier.NewSMTPNotifier(*config.SMTP), nil
	case config.Type == "brevo" && config.Brevo != nil:
		return notifier.NewBrevoNotifier(*config.Brevo), nil
	case config.Type == "filesystem" && config.Filesystem != nil:
		outbox, err := notifier.NewFilesystemNotifier(*config.Filesystem)
		if err != nil {
			return nil, err
		}
		return outbox, nil
	default:
		return nil, fmt.Errorf("notifier %q is not configured", config.Type)
	}
}

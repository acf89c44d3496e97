package notifier

import "context"

const (
	TemplateMFACode       = "mfa_code"
	TemplateMFAStillValid = "mfa_still_valid"
)

// INotifier delivers one rendered message per call.
type INotifier interface {
	NotifyFromTemplate(ctx context.Context, to string, subject string, templateName string, data any) error
}

package notifier

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"edgeguard/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const brevoDefaultBaseURL = "https://api.brevo.com"

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmail struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// BrevoNotifier sends transactional mail through the Brevo HTTP API.
type BrevoNotifier struct {
	client *resty.Client
	sender brevoContact
}

func NewBrevoNotifier(config models.BrevoConfiguration) *BrevoNotifier {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = brevoDefaultBaseURL
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("api-key", config.APIKey).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &BrevoNotifier{client: client, sender: parseSender(config.Sender)}
}

// parseSender accepts either "Name <addr>" or a bare address.
func parseSender(raw string) brevoContact {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return brevoContact{Email: raw}
	}
	return brevoContact{Email: addr.Address, Name: addr.Name}
}

func (b *BrevoNotifier) NotifyFromTemplate(
	ctx context.Context,
	to string,
	subject string,
	templateName string,
	data any,
) error {
	html, err := RenderTemplate(templateName, data)
	if err != nil {
		return err
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(brevoEmail{
			Sender:      b.sender,
			To:          []brevoContact{{Email: to}},
			Subject:     subject,
			HTMLContent: html,
		}).
		Post("/v3/smtp/email")
	if err != nil {
		return fmt.Errorf("brevo request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("brevo rejected message: status %d: %s", resp.StatusCode(), resp.String())
	}

	zap.L().Debug("Mail sent through Brevo", zap.String("template", templateName), zap.String("to", to))
	return nil
}

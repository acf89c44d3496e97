package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"edgeguard/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// outboxMessage is one file in the outbox directory.
type outboxMessage struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Template string    `json:"template"`
	Data     any       `json:"data,omitempty"`
	HTML     string    `json:"html"`
	QueuedAt time.Time `json:"queued_at"`
}

// FilesystemNotifier drops rendered messages into a local outbox instead of sending them.
// Files sort by creation time, which makes the latest code easy to find during development.
type FilesystemNotifier struct {
	directory string
	now       func() time.Time
}

func NewFilesystemNotifier(config models.FilesystemNotifierConfiguration) (*FilesystemNotifier, error) {
	if err := os.MkdirAll(config.Directory, 0750); err != nil {
		return nil, fmt.Errorf("failed to create outbox %s: %w", config.Directory, err)
	}
	return &FilesystemNotifier{directory: config.Directory, now: time.Now}, nil
}

func (f *FilesystemNotifier) NotifyFromTemplate(
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

	msg := outboxMessage{
		To:       to,
		Subject:  subject,
		Template: templateName,
		Data:     data,
		HTML:     html,
		QueuedAt: f.now().UTC(),
	}
	content, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(f.directory, outboxFileName(msg))
	if err = os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write notification file: %w", err)
	}

	zap.L().Info("Notification queued in outbox",
		zap.String("path", path),
		zap.String("template", templateName),
		zap.String("to", to))
	return nil
}

func outboxFileName(msg outboxMessage) string {
	return fmt.Sprintf("%020d-%s-%s.json", msg.QueuedAt.UnixNano(), msg.Template, uuid.NewString()[:8])
}

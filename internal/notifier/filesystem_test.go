package notifier

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"edgeguard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOutbox(t *testing.T, now time.Time) (*FilesystemNotifier, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "outbox")
	n, err := NewFilesystemNotifier(models.FilesystemNotifierConfiguration{Directory: dir})
	require.NoError(t, err)
	n.now = func() time.Time { return now }
	return n, dir
}

func readOutbox(t *testing.T, dir string) []outboxMessage {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	messages := make([]outboxMessage, 0, len(entries))
	for _, entry := range entries {
		content, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, readErr)

		var msg outboxMessage
		require.NoError(t, json.Unmarshal(content, &msg))
		messages = append(messages, msg)
	}
	return messages
}

func TestFilesystemNotifier_WritesRenderedMessage(t *testing.T) {
	queuedAt := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	n, dir := newTestOutbox(t, queuedAt)

	err := n.NotifyFromTemplate(context.Background(), "admin@example.com", "Your 2FA code", TemplateMFACode,
		map[string]any{"Code": "482913", "ExpiresInMinutes": 5})
	require.NoError(t, err)

	messages := readOutbox(t, dir)
	require.Len(t, messages, 1)
	msg := messages[0]
	assert.Equal(t, "admin@example.com", msg.To)
	assert.Equal(t, "Your 2FA code", msg.Subject)
	assert.Equal(t, TemplateMFACode, msg.Template)
	assert.True(t, queuedAt.Equal(msg.QueuedAt))
	assert.Contains(t, msg.HTML, "482913")
}

func TestFilesystemNotifier_FileNamesSortByTime(t *testing.T) {
	n, dir := newTestOutbox(t, time.Unix(1_700_000_000, 0))

	require.NoError(t, n.NotifyFromTemplate(context.Background(), "a@example.com", "x", TemplateMFAStillValid, nil))
	n.now = func() time.Time { return time.Unix(1_700_000_060, 0) }
	require.NoError(t, n.NotifyFromTemplate(context.Background(), "b@example.com", "x", TemplateMFAStillValid, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".json"))
	assert.Contains(t, entries[0].Name(), TemplateMFAStillValid)

	messages := readOutbox(t, dir)
	assert.Equal(t, "a@example.com", messages[0].To)
	assert.Equal(t, "b@example.com", messages[1].To)
}

func TestFilesystemNotifier_UnknownTemplate(t *testing.T) {
	n, dir := newTestOutbox(t, time.Now())

	err := n.NotifyFromTemplate(context.Background(), "admin@example.com", "x", "does_not_exist", nil)
	assert.Error(t, err)
	assert.Empty(t, readOutbox(t, dir))
}

func TestFilesystemNotifier_CancelledContext(t *testing.T) {
	n, dir := newTestOutbox(t, time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.NotifyFromTemplate(ctx, "admin@example.com", "x", TemplateMFAStillValid, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, readOutbox(t, dir))
}

func TestNewFilesystemNotifier_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deep", "outbox")

	_, err := NewFilesystemNotifier(models.FilesystemNotifierConfiguration{Directory: dir})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewFilesystemNotifier_DirectoryIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	_, err := NewFilesystemNotifier(models.FilesystemNotifierConfiguration{Directory: file})
	assert.Error(t, err)
}

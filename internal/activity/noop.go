package activity

import "edgeguard/internal/models"

// NoopLogger drops every entry. Used when activity.type is "none".
type NoopLogger struct{}

func (NoopLogger) Send(_ models.AuditEntry) error { return nil }

func (NoopLogger) Search(_ models.AuditQuery) ([]models.AuditEntry, error) {
	return nil, nil
}

func (NoopLogger) Close() error { return nil }

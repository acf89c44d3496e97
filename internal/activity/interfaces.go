package activity

import "edgeguard/internal/models"

// IActivityLogger keeps the audit trail of MFA transitions and device keypad events.
type IActivityLogger interface {
	Send(entry models.AuditEntry) error
	// Search returns matching entries, newest first.
	Search(query models.AuditQuery) ([]models.AuditEntry, error)
	Close() error
}

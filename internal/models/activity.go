package models

import "time"

// AuditEntry is one record of the audit trail. Details are stored but not searchable.
type AuditEntry struct {
	Action   string         `json:"action"`
	UserID   string         `json:"user_id,omitempty"`
	Email    string         `json:"email,omitempty"`
	DeviceID string         `json:"device_id,omitempty"`
	At       time.Time      `json:"at"`
	Details  map[string]any `json:"details,omitempty"`
}

// AuditQuery narrows a search of the audit trail. Zero fields match everything.
type AuditQuery struct {
	Actions  []string
	UserID   string
	DeviceID string
	Since    time.Time
	Limit    int
}

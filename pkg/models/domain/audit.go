package domain

import "time"

// AuditEntry is one immutable record in the append-only audit trail. Every
// executed remediation and every chat exchange produces exactly one entry;
// the running process never edits or deletes entries.
type AuditEntry struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	ResourceID string    `json:"resource_id,omitempty"`
	Region     string    `json:"region,omitempty"`
	Skill      string    `json:"skill,omitempty"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
}

package remediation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/de-tools/ops-agent/pkg/models/domain"
)

// AuditLog is the append-only trail of remediation attempts and chat
// exchanges. Entries are kept in memory and mirrored to the structured log;
// nothing ever rewrites or removes an entry.
type AuditLog struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// Append records one entry, stamping an id and time when missing.
func (l *AuditLog) Append(ctx context.Context, entry domain.AuditEntry) domain.AuditEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	zerolog.Ctx(ctx).Info().
		Str("audit_id", entry.ID).
		Str("actor", entry.Actor).
		Str("action", entry.Action).
		Str("resource_id", entry.ResourceID).
		Str("outcome", entry.Outcome).
		Msg("audit entry")
	return entry
}

// Entries returns a snapshot copy in append order.
func (l *AuditLog) Entries() []domain.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.AuditEntry(nil), l.entries...)
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medshift/marketplace/internal/domain"
)

// AppendAuditEntry appends one record to the audit log. The log is
// append-only; nothing in this store mutates or deletes entries.
func (s *Store) AppendAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	row := s.q(ctx).QueryRowxContext(ctx,
		`INSERT INTO audit_log (id, actor_id, action, target, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		entry.ID, entry.ActorID, entry.Action, entry.Target, metadata)
	if err := row.Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("append audit entry %s: %w", entry.Action, err)
	}
	return nil
}

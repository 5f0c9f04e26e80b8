// Package audit implements the append-only action log sink.
package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/medshift/marketplace/internal/domain"
)

// Store is the persistence needed by the recorder.
type Store interface {
	AppendAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
}

// Recorder appends audit entries to the store. It never returns an error to
// the caller: audit writes happen after the primary state change has
// committed, and a failed append must not unwind it. Failures are logged as
// an observability gap instead.
type Recorder struct {
	store Store
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Log appends one entry, assigning its ID.
func (r *Recorder) Log(ctx context.Context, entry domain.AuditEntry) {
	entry.ID = uuid.New()
	if err := r.store.AppendAuditEntry(ctx, &entry); err != nil {
		slog.Error("audit append failed",
			"action", entry.Action,
			"target", entry.Target,
			"actor_id", entry.ActorID,
			"error", err)
	}
}

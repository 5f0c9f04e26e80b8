package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medshift/marketplace/internal/audit"
	"github.com/medshift/marketplace/internal/domain"
)

type captureStore struct {
	entries []domain.AuditEntry
	err     error
}

func (s *captureStore) AppendAuditEntry(_ context.Context, entry *domain.AuditEntry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func TestRecorderAssignsIDAndAppends(t *testing.T) {
	store := &captureStore{}
	rec := audit.NewRecorder(store)

	rec.Log(context.Background(), domain.AuditEntry{
		ActorID:  uuid.New(),
		Action:   domain.AuditEscrowCreated,
		Target:   "escrow:test",
		Metadata: map[string]any{"amount": int64(10000)},
	})

	require.Len(t, store.entries, 1)
	assert.NotEqual(t, uuid.Nil, store.entries[0].ID)
	assert.Equal(t, domain.AuditEscrowCreated, store.entries[0].Action)
}

// A failed append must not reach the caller; the primary state change has
// already committed by the time the sink runs.
func TestRecorderSwallowsAppendFailure(t *testing.T) {
	store := &captureStore{err: errors.New("insert failed")}
	rec := audit.NewRecorder(store)

	assert.NotPanics(t, func() {
		rec.Log(context.Background(), domain.AuditEntry{
			ActorID: uuid.New(),
			Action:  domain.AuditEscrowReleased,
			Target:  "escrow:test",
		})
	})
	assert.Empty(t, store.entries)
}

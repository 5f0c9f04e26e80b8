package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medshift/marketplace/internal/domain"
	"github.com/medshift/marketplace/internal/service"
)

// memState is one consistent snapshot of the fake store.
type memState struct {
	users   map[uuid.UUID]domain.User
	jobs    map[uuid.UUID]domain.Job
	escrows map[uuid.UUID]domain.EscrowTransaction
	orders  map[uuid.UUID]domain.JobOrder
}

func newMemState() *memState {
	return &memState{
		users:   map[uuid.UUID]domain.User{},
		jobs:    map[uuid.UUID]domain.Job{},
		escrows: map[uuid.UUID]domain.EscrowTransaction{},
		orders:  map[uuid.UUID]domain.JobOrder{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	for k, v := range s.escrows {
		c.escrows[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	return c
}

type memTxKey struct{}

// memStore is an in-memory service.Store with real transaction semantics:
// InTx stages writes on a snapshot and publishes it only when the callback
// succeeds, and a mutex serializes transactions the way row locks do in
// Postgres. failOn injects errors by method name for atomicity tests.
type memStore struct {
	mu    sync.Mutex
	state *memState

	clock  time.Time
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		state:  newMemState(),
		clock:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		failOn: map[string]error{},
	}
}

func (s *memStore) failNext(method string, err error) {
	s.failOn[method] = err
}

func (s *memStore) injected(method string) error {
	if err, ok := s.failOn[method]; ok {
		delete(s.failOn, method)
		return err
	}
	return nil
}

// tick returns a strictly increasing timestamp for created_at ordering.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) stateFor(ctx context.Context) *memState {
	if st, ok := ctx.Value(memTxKey{}).(*memState); ok {
		return st
	}
	return s.state
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memTxKey{}).(*memState); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(context.WithValue(ctx, memTxKey{}, staged)); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// read helpers lock only outside a transaction; inside one the mutex is
// already held by InTx.
func (s *memStore) reading(ctx context.Context, fn func(st *memState)) {
	if st, ok := ctx.Value(memTxKey{}).(*memState); ok {
		fn(st)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func (s *memStore) JobByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	var job *domain.Job
	s.reading(ctx, func(st *memState) {
		if j, ok := st.jobs[id]; ok {
			job = &j
		}
	})
	if job == nil {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (s *memStore) JobForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if err := s.injected("JobForUpdate"); err != nil {
		return nil, err
	}
	return s.JobByID(ctx, id)
}

func (s *memStore) UpdateJobStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	if err := s.injected("UpdateJobStatus"); err != nil {
		return err
	}
	st := s.stateFor(ctx)
	job, ok := st.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	job.UpdatedAt = s.tick()
	st.jobs[id] = job
	return nil
}

func (s *memStore) CreateEscrow(ctx context.Context, esc *domain.EscrowTransaction) error {
	if err := s.injected("CreateEscrow"); err != nil {
		return err
	}
	st := s.stateFor(ctx)
	for _, existing := range st.escrows {
		if existing.JobID == esc.JobID {
			// mirrors the UNIQUE(job_id) violation mapping
			return domain.BusinessError(domain.CodeEscrowAlreadyExists,
				"an escrow transaction already exists for this job")
		}
	}
	esc.CreatedAt = s.tick()
	st.escrows[esc.ID] = *esc
	return nil
}

func (s *memStore) EscrowByID(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error) {
	var esc *domain.EscrowTransaction
	s.reading(ctx, func(st *memState) {
		if e, ok := st.escrows[id]; ok {
			esc = &e
		}
	})
	if esc == nil {
		return nil, domain.ErrNotFound
	}
	return esc, nil
}

func (s *memStore) EscrowForUpdate(ctx context.Context, id uuid.UUID) (*domain.EscrowTransaction, error) {
	if err := s.injected("EscrowForUpdate"); err != nil {
		return nil, err
	}
	return s.EscrowByID(ctx, id)
}

func (s *memStore) EscrowByJobID(ctx context.Context, jobID uuid.UUID) (*domain.EscrowTransaction, error) {
	var esc *domain.EscrowTransaction
	s.reading(ctx, func(st *memState) {
		for _, e := range st.escrows {
			if e.JobID == jobID {
				copied := e
				esc = &copied
				return
			}
		}
	})
	if esc == nil {
		return nil, domain.ErrNotFound
	}
	return esc, nil
}

func (s *memStore) EscrowDetails(ctx context.Context, id uuid.UUID) (*domain.EscrowDetails, error) {
	var details *domain.EscrowDetails
	s.reading(ctx, func(st *memState) {
		esc, ok := st.escrows[id]
		if !ok {
			return
		}
		job, ok := st.jobs[esc.JobID]
		if !ok {
			return
		}
		payer, ok := st.users[job.OrganizerID]
		if !ok {
			return
		}
		details = &domain.EscrowDetails{
			EscrowTransaction: esc,
			JobTitle:          job.Title,
			PayerName:         payer.DisplayName,
		}
	})
	if details == nil {
		return nil, domain.ErrNotFound
	}
	return details, nil
}

func (s *memStore) setEscrow(ctx context.Context, id uuid.UUID, want domain.EscrowStatus, mutate func(*domain.EscrowTransaction)) error {
	st := s.stateFor(ctx)
	esc, ok := st.escrows[id]
	if !ok || esc.Status != want {
		return domain.BusinessError(domain.CodeInvalidEscrowStatus,
			"escrow transaction is not in a state that permits this transition")
	}
	mutate(&esc)
	st.escrows[id] = esc
	return nil
}

func (s *memStore) SetEscrowHolding(ctx context.Context, id uuid.UUID) error {
	if err := s.injected("SetEscrowHolding"); err != nil {
		return err
	}
	return s.setEscrow(ctx, id, domain.EscrowStatusAwaiting, func(e *domain.EscrowTransaction) {
		e.Status = domain.EscrowStatusHolding
	})
}

func (s *memStore) SetEscrowReleased(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := s.injected("SetEscrowReleased"); err != nil {
		return err
	}
	return s.setEscrow(ctx, id, domain.EscrowStatusHolding, func(e *domain.EscrowTransaction) {
		e.Status = domain.EscrowStatusReleased
		e.ReleasedAt = &at
	})
}

func (s *memStore) SetEscrowRefunded(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := s.injected("SetEscrowRefunded"); err != nil {
		return err
	}
	return s.setEscrow(ctx, id, domain.EscrowStatusHolding, func(e *domain.EscrowTransaction) {
		e.Status = domain.EscrowStatusRefunded
		e.RefundedAt = &at
	})
}

func (s *memStore) CreateJobOrder(ctx context.Context, order *domain.JobOrder) error {
	if err := s.injected("CreateJobOrder"); err != nil {
		return err
	}
	st := s.stateFor(ctx)
	order.CreatedAt = s.tick()
	st.orders[order.ID] = *order
	return nil
}

func (s *memStore) OrderByID(ctx context.Context, id uuid.UUID) (*domain.JobOrder, error) {
	var order *domain.JobOrder
	s.reading(ctx, func(st *memState) {
		if o, ok := st.orders[id]; ok {
			order = &o
		}
	})
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *memStore) OrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.JobOrder, error) {
	if err := s.injected("OrderForUpdate"); err != nil {
		return nil, err
	}
	return s.OrderByID(ctx, id)
}

func (s *memStore) LatestOrderByJobID(ctx context.Context, jobID uuid.UUID) (*domain.JobOrder, error) {
	orders, err := s.OrdersForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, domain.ErrNotFound
	}
	return &orders[0], nil
}

func (s *memStore) OrdersForJob(ctx context.Context, jobID uuid.UUID) ([]domain.JobOrder, error) {
	var orders []domain.JobOrder
	s.reading(ctx, func(st *memState) {
		for _, o := range st.orders {
			if o.JobID == jobID {
				orders = append(orders, o)
			}
		}
	})
	// most recent first
	for i := 0; i < len(orders); i++ {
		for j := i + 1; j < len(orders); j++ {
			if orders[j].CreatedAt.After(orders[i].CreatedAt) {
				orders[i], orders[j] = orders[j], orders[i]
			}
		}
	}
	return orders, nil
}

func (s *memStore) SetOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, rejectionReason *string, acceptedAt *time.Time) error {
	if err := s.injected("SetOrderStatus"); err != nil {
		return err
	}
	st := s.stateFor(ctx)
	order, ok := st.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	order.Status = status
	order.RejectionReason = rejectionReason
	order.AcceptedAt = acceptedAt
	st.orders[id] = order
	return nil
}

func (s *memStore) HasAcceptedOrder(ctx context.Context, jobID, exclude uuid.UUID) (bool, error) {
	var taken bool
	s.reading(ctx, func(st *memState) {
		for _, o := range st.orders {
			if o.JobID == jobID && o.Status == domain.OrderStatusAccepted && o.ID != exclude {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

// seedJob inserts an organizer and a job in the given status, returning
// their IDs.
func (s *memStore) seedJob(status domain.JobStatus) (jobID, organizerID uuid.UUID) {
	organizerID = uuid.New()
	jobID = uuid.New()
	s.state.users[organizerID] = domain.User{
		ID:          organizerID,
		Role:        domain.UserRoleOrganizer,
		Email:       "organizer@example.com",
		DisplayName: "Riverside Events",
	}
	s.state.jobs[jobID] = domain.Job{
		ID:          jobID,
		OrganizerID: organizerID,
		Title:       "Festival first-aid shift",
		Status:      status,
		CreatedAt:   s.tick(),
		UpdatedAt:   s.clock,
	}
	return jobID, organizerID
}

// memSink collects audit entries in order.
type memSink struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (s *memSink) Log(_ context.Context, entry domain.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *memSink) all() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.entries...)
}

func (s *memSink) actions() []string {
	var actions []string
	for _, e := range s.all() {
		actions = append(actions, e.Action)
	}
	return actions
}

// stubGateway is a configurable payment gateway.
type stubGateway struct {
	mu     sync.Mutex
	err    error
	calls  int
	lastID uuid.UUID
}

func (g *stubGateway) Charge(_ context.Context, escrowID uuid.UUID, _ int64) (service.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastID = escrowID
	if g.err != nil {
		return service.ChargeResult{}, g.err
	}
	return service.ChargeResult{TransactionID: "mock_tx_1767225600_cafe0001"}, nil
}

var errGatewayDown = errors.New("gateway timeout")

func validTerms() domain.ContractTerms {
	return domain.ContractTerms{
		StartDate: time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC),
		Location:  "Riverside fairground, main tent",
		Compensation: domain.Compensation{
			Type:     domain.CompensationHourly,
			Amount:   4500,
			Currency: "USD",
		},
		Responsibilities:   []string{"Staff the first-aid tent", "Keep incident records"},
		CancellationPolicy: "48 hours notice, otherwise 50% of the fixed fee",
	}
}

func strPtr(s string) *string { return &s }

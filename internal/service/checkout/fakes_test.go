package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository/outbox"

	"github.com/jackc/pgx/v5"
)

// memState is the committed content of the fake store.
type memState struct {
	inventory map[int64]int
	carts     map[int64][]domain.CartLine
	orders    []domain.Order
	payments  []domain.Payment
	events    []outbox.Event
	nextID    int64
}

func (s *memState) clone() *memState {
	c := &memState{
		inventory: make(map[int64]int, len(s.inventory)),
		carts:     make(map[int64][]domain.CartLine, len(s.carts)),
		orders:    append([]domain.Order(nil), s.orders...),
		payments:  append([]domain.Payment(nil), s.payments...),
		events:    append([]outbox.Event(nil), s.events...),
		nextID:    s.nextID,
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = append([]domain.CartLine(nil), v...)
	}
	return c
}

// memStore serializes transactions with a single lock and applies a working
// copy on commit.
type memStore struct {
	txLock    sync.Mutex
	state     *memState
	commitErr error

	logMu      sync.Mutex
	reserveLog []int64
	releaseLog []int64
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		inventory: map[int64]int{},
		carts:     map[int64][]domain.CartLine{},
	}}
}

func (m *memStore) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	m.txLock.Lock()
	return &memTx{store: m, work: m.state.clone()}, nil
}

func (m *memStore) snapshot() *memState {
	m.txLock.Lock()
	defer m.txLock.Unlock()
	return m.state.clone()
}

type memTx struct {
	pgx.Tx
	store *memStore
	work  *memState
	done  bool
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	defer t.store.txLock.Unlock()
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.state = t.work
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.txLock.Unlock()
	return nil
}

func work(q db.Querier) *memState {
	return q.(*memTx).work
}

type memCarts struct {
	clearErr error
}

func (c *memCarts) Snapshot(_ context.Context, q db.Querier, userID int64) ([]domain.CartLine, error) {
	return append([]domain.CartLine{}, work(q).carts[userID]...), nil
}

func (c *memCarts) Clear(_ context.Context, q db.Querier, userID int64) error {
	if c.clearErr != nil {
		return c.clearErr
	}
	delete(work(q).carts, userID)
	return nil
}

type memLedger struct {
	store *memStore
}

func (l *memLedger) TryReserve(_ context.Context, q db.Querier, productID int64, quantity int) (bool, error) {
	l.store.logMu.Lock()
	l.store.reserveLog = append(l.store.reserveLog, productID)
	l.store.logMu.Unlock()

	st := work(q)
	available, ok := st.inventory[productID]
	if !ok || available < quantity {
		return false, nil
	}
	st.inventory[productID] = available - quantity
	return true, nil
}

func (l *memLedger) Release(_ context.Context, q db.Querier, productID int64, quantity int) error {
	l.store.logMu.Lock()
	l.store.releaseLog = append(l.store.releaseLog, productID)
	l.store.logMu.Unlock()

	work(q).inventory[productID] += quantity
	return nil
}

type memOrders struct {
	createErr error
}

func (o *memOrders) Create(_ context.Context, q db.Querier, order *domain.Order) error {
	if o.createErr != nil {
		return o.createErr
	}
	st := work(q)
	st.nextID++
	order.ID = st.nextID
	order.PlacedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range order.Lines {
		st.nextID++
		order.Lines[i].ID = st.nextID
		order.Lines[i].OrderID = order.ID
	}
	st.orders = append(st.orders, *order)
	return nil
}

func (o *memOrders) SetStatus(_ context.Context, q db.Querier, orderID int64, status domain.OrderStatus) error {
	st := work(q)
	for i := range st.orders {
		if st.orders[i].ID == orderID {
			st.orders[i].Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (o *memOrders) AddPayment(_ context.Context, q db.Querier, p *domain.Payment) error {
	st := work(q)
	st.nextID++
	p.ID = st.nextID
	st.payments = append(st.payments, *p)
	return nil
}

type memEvents struct{}

func (memEvents) Insert(_ context.Context, q db.Querier, e *outbox.Event) error {
	st := work(q)
	st.nextID++
	e.ID = st.nextID
	st.events = append(st.events, *e)
	return nil
}

type stubAdapter struct {
	mu        sync.Mutex
	status    domain.PaymentStatus
	err       error
	block     bool
	calls     int
	lastAmt   int64
	lastProvd string
}

func (a *stubAdapter) Settle(ctx context.Context, amountCents int64, provider string) (payment.Settlement, error) {
	a.mu.Lock()
	a.calls++
	a.lastAmt = amountCents
	a.lastProvd = provider
	a.mu.Unlock()
	if a.block {
		<-ctx.Done()
		return payment.Settlement{}, ctx.Err()
	}
	if a.err != nil {
		return payment.Settlement{}, a.err
	}
	status := a.status
	if status == "" {
		status = domain.PaymentSucceeded
	}
	return payment.Settlement{Status: status, Reference: "REF-1"}, nil
}

type recordedOutcomes struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordedOutcomes) ObserveCheckout(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

type harness struct {
	store   *memStore
	carts   *memCarts
	orders  *memOrders
	adapter *stubAdapter
	metrics *recordedOutcomes
	svc     *Service
}

func newHarness(opts ...func(*Deps)) *harness {
	h := &harness{
		store:   newMemStore(),
		carts:   &memCarts{},
		orders:  &memOrders{},
		adapter: &stubAdapter{},
		metrics: &recordedOutcomes{},
	}
	deps := Deps{
		DB:        h.store,
		Carts:     h.carts,
		Inventory: &memLedger{store: h.store},
		Orders:    h.orders,
		Payments:  h.adapter,
		Metrics:   h.metrics,
	}
	for _, o := range opts {
		o(&deps)
	}
	h.svc = New(deps)
	return h
}

func (h *harness) stock(productID int64, qty int) {
	h.store.state.inventory[productID] = qty
}

func (h *harness) cart(userID int64, lines ...domain.CartLine) {
	h.store.state.carts[userID] = lines
}

var errBoom = errors.New("connection reset by peer")

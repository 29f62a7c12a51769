package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/repository/outbox"

	"github.com/jackc/pgx/v5"
)

// DefaultProvider is used when the caller does not name a payment provider.
const DefaultProvider = "test"

// EventOrderPlaced is the outbox event type written for completed checkouts.
const EventOrderPlaced = "order.placed"

type cartStore interface {
	Snapshot(ctx context.Context, q db.Querier, userID int64) ([]domain.CartLine, error)
	Clear(ctx context.Context, q db.Querier, userID int64) error
}

type ledger interface {
	TryReserve(ctx context.Context, q db.Querier, productID int64, quantity int) (bool, error)
	Release(ctx context.Context, q db.Querier, productID int64, quantity int) error
}

type orderStore interface {
	Create(ctx context.Context, q db.Querier, o *domain.Order) error
	SetStatus(ctx context.Context, q db.Querier, orderID int64, status domain.OrderStatus) error
	AddPayment(ctx context.Context, q db.Querier, p *domain.Payment) error
}

type eventWriter interface {
	Insert(ctx context.Context, q db.Querier, e *outbox.Event) error
}

type recorder interface {
	ObserveCheckout(outcome string, elapsed time.Duration)
}

// Deps wires the orchestrator. Events and Metrics are optional.
type Deps struct {
	DB        db.TxBeginner
	Carts     cartStore
	Inventory ledger
	Orders    orderStore
	Payments  payment.Adapter
	Events    eventWriter
	Metrics   recorder
	Logger    *log.Logger
	// Timeout bounds a whole attempt; zero means no budget beyond the caller's context.
	Timeout time.Duration
}

// Service converts a user's cart into a paid order in one transaction.
type Service struct {
	db       db.TxBeginner
	carts    cartStore
	ledger   ledger
	orders   orderStore
	payments payment.Adapter
	events   eventWriter
	metrics  recorder
	logger   *log.Logger
	timeout  time.Duration
}

func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		db:       d.DB,
		carts:    d.Carts,
		ledger:   d.Inventory,
		orders:   d.Orders,
		payments: d.Payments,
		events:   d.Events,
		metrics:  d.Metrics,
		logger:   logger,
		timeout:  d.Timeout,
	}
}

type PlaceOrderInput struct {
	UserID            int64
	BillingAddressID  *int64
	ShippingAddressID *int64
	Provider          string
}

// PlaceOrder reserves stock for every cart line, records the order and its
// payment, and empties the cart. Either all of it commits or none of it does.
// Returned errors are ErrEmptyCart, *InsufficientStockError, ErrPaymentFailed
// or ErrStorageFailure.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	provider := strings.TrimSpace(in.Provider)
	if provider == "" {
		provider = DefaultProvider
	}

	a := &attempt{userID: in.UserID, state: StateStarted, logger: s.logger}
	var placed *domain.Order
	err := db.WithTx(ctx, s.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		o, err := s.place(ctx, tx, a, in, provider)
		placed = o
		return err
	})
	if err == nil {
		err = a.advance(StateCompleted)
	}

	result := classify(err)
	s.observe(result, start)
	if result != nil {
		a.rollback()
		if errors.Is(result, ErrStorageFailure) {
			s.logger.Printf("checkout: failed user_id=%d state=%s error=%v", in.UserID, a.state, err)
		} else {
			s.logger.Printf("checkout: rejected user_id=%d reason=%v", in.UserID, result)
		}
		return nil, result
	}

	s.logger.Printf("checkout: placed user_id=%d order_id=%d total_cents=%d lines=%d provider=%s",
		in.UserID, placed.ID, placed.TotalCents, len(placed.Lines), provider)
	return placed, nil
}

func (s *Service) place(ctx context.Context, tx pgx.Tx, a *attempt, in PlaceOrderInput, provider string) (*domain.Order, error) {
	lines, err := s.carts.Snapshot(ctx, tx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("snapshot cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	reserved, err := s.reserve(ctx, tx, lines)
	if err != nil {
		return nil, err
	}
	if err := a.advance(StateStockValidated); err != nil {
		return nil, err
	}

	order, err := Build(in.UserID, lines, in.BillingAddressID, in.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if err := a.advance(StateOrderCreated); err != nil {
		return nil, err
	}
	// The reservations are the inventory decrements; bind each order line to one.
	if err := applyReservations(order.Lines, reserved); err != nil {
		return nil, err
	}
	if err := a.advance(StateInventoryApplied); err != nil {
		return nil, err
	}

	pay, err := s.settle(ctx, tx, order, provider)
	if err != nil {
		return nil, err
	}
	order.Status = domain.OrderPaid
	order.Payments = []domain.Payment{*pay}
	if err := a.advance(StatePaymentSettled); err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.recordPlaced(ctx, tx, order); err != nil {
			return nil, fmt.Errorf("record event: %w", err)
		}
	}

	if err := s.carts.Clear(ctx, tx, in.UserID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	return order, nil
}

// reserve takes stock in ascending product id order so that two checkouts
// sharing products lock rows in the same sequence. It returns the reserved
// quantity per product.
func (s *Service) reserve(ctx context.Context, tx pgx.Tx, lines []domain.CartLine) (map[int64]int, error) {
	ordered := make([]domain.CartLine, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	taken := make([]domain.CartLine, 0, len(ordered))
	for _, l := range ordered {
		ok, err := s.ledger.TryReserve(ctx, tx, l.ProductID, l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("reserve product %d: %w", l.ProductID, err)
		}
		if !ok {
			s.release(ctx, tx, taken)
			return nil, &InsufficientStockError{ProductID: l.ProductID}
		}
		taken = append(taken, l)
	}

	reserved := make(map[int64]int, len(taken))
	for _, l := range taken {
		reserved[l.ProductID] += l.Quantity
	}
	return reserved, nil
}

// applyReservations checks that the order lines consume exactly the stock
// reserved for them.
func applyReservations(lines []domain.OrderLine, reserved map[int64]int) error {
	left := make(map[int64]int, len(reserved))
	for id, q := range reserved {
		left[id] = q
	}
	for _, l := range lines {
		if left[l.ProductID] < l.Quantity {
			return fmt.Errorf("order line for product %d exceeds its reservation", l.ProductID)
		}
		left[l.ProductID] -= l.Quantity
	}
	for id, q := range left {
		if q != 0 {
			return fmt.Errorf("reservation for product %d not used by any order line", id)
		}
	}
	return nil
}

func (s *Service) release(ctx context.Context, tx pgx.Tx, taken []domain.CartLine) {
	for i := len(taken) - 1; i >= 0; i-- {
		l := taken[i]
		if err := s.ledger.Release(ctx, tx, l.ProductID, l.Quantity); err != nil {
			s.logger.Printf("checkout: release product_id=%d quantity=%d error=%v", l.ProductID, l.Quantity, err)
		}
	}
}

func (s *Service) settle(ctx context.Context, tx pgx.Tx, order *domain.Order, provider string) (*domain.Payment, error) {
	settlement, err := s.payments.Settle(ctx, order.TotalCents, provider)
	if err != nil {
		s.logger.Printf("checkout: settle user_id=%d amount_cents=%d provider=%s error=%v", order.UserID, order.TotalCents, provider, err)
		return nil, ErrPaymentFailed
	}
	if !settlement.Succeeded() {
		s.logger.Printf("checkout: declined user_id=%d amount_cents=%d provider=%s ref=%s", order.UserID, order.TotalCents, provider, settlement.Reference)
		return nil, ErrPaymentFailed
	}

	if err := s.orders.SetStatus(ctx, tx, order.ID, domain.OrderPaid); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	pay := &domain.Payment{
		OrderID:     order.ID,
		Provider:    provider,
		ProviderRef: settlement.Reference,
		AmountCents: order.TotalCents,
		Status:      domain.PaymentSucceeded,
	}
	if err := s.orders.AddPayment(ctx, tx, pay); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return pay, nil
}

type placedLine struct {
	ProductID      int64 `json:"product_id"`
	Quantity       int   `json:"quantity"`
	UnitPriceCents int64 `json:"unit_price_cents"`
}

type placedEvent struct {
	OrderID    int64        `json:"order_id"`
	UserID     int64        `json:"user_id"`
	TotalCents int64        `json:"total_cents"`
	Items      []placedLine `json:"items"`
	PlacedAt   time.Time    `json:"placed_at"`
}

func (s *Service) recordPlaced(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ev := placedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalCents: order.TotalCents,
		PlacedAt:   order.PlacedAt,
	}
	for _, l := range order.Lines {
		ev.Items = append(ev.Items, placedLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPriceCents: l.UnitPriceCents})
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.events.Insert(ctx, tx, &outbox.Event{
		EventType:   EventOrderPlaced,
		AggregateID: strconv.FormatInt(order.ID, 10),
		Payload:     payload,
	})
}

func (s *Service) observe(err error, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCheckout(outcome(err), time.Since(start))
	}
}

// attempt tracks the state of one PlaceOrder call.
type attempt struct {
	userID int64
	state  State
	logger *log.Logger
}

func (a *attempt) advance(next State) error {
	if !a.state.CanTransitionTo(next) {
		return fmt.Errorf("illegal checkout transition %s -> %s", a.state, next)
	}
	a.state = next
	return nil
}

func (a *attempt) rollback() {
	if a.state.CanTransitionTo(StateRolledBack) {
		a.logger.Printf("checkout: rolled back user_id=%d from=%s", a.userID, a.state)
		a.state = StateRolledBack
	}
}

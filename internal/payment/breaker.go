package payment

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"
)

type BreakerSettings struct {
	Name string
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// Breaker guards an Adapter with a circuit breaker. Only errors count as
// failures; declines are normal verdicts.
type Breaker struct {
	next   Adapter
	cb     *gobreaker.CircuitBreaker[Settlement]
	logger *log.Logger
}

func NewBreaker(next Adapter, s BreakerSettings, logger *log.Logger) *Breaker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if s.Name == "" {
		s.Name = "payment"
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[Settlement](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		// The caller giving up says nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Printf("payment breaker: name=%s from=%s to=%s", name, from, to)
		},
	})
	return &Breaker{next: next, cb: cb, logger: logger}
}

func (b *Breaker) Settle(ctx context.Context, amountCents int64, provider string) (Settlement, error) {
	return b.cb.Execute(func() (Settlement, error) {
		return b.next.Settle(ctx, amountCents, provider)
	})
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Package events publishes outbox rows to Kafka.
//
// Delivery is at least once: a batch is marked sent only after the broker
// acknowledged it, so a crash between the two republishes the batch.
// Consumers deduplicate on the event_id header.
package events

import (
	"context"
	"io"
	"log"
	"time"

	"storefront/internal/db"
	"storefront/internal/repository/outbox"

	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the relay uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type store interface {
	FetchPending(ctx context.Context, q db.Querier, limit int) ([]outbox.Event, error)
	MarkSent(ctx context.Context, q db.Querier, ids []int64) error
}

// NewWriter returns a writer keyed by aggregate id so that events of one
// order land on one partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

type Options struct {
	Interval  time.Duration
	BatchSize int
	Logger    *log.Logger
}

type Relay struct {
	db       db.TxBeginner
	store    store
	writer   MessageWriter
	interval time.Duration
	batch    int
	logger   *log.Logger
}

func NewRelay(tx db.TxBeginner, s store, w MessageWriter, opts Options) *Relay {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Relay{db: tx, store: s, writer: w, interval: interval, batch: batch, logger: logger}
}

// Run flushes on every tick until ctx is cancelled, then closes the writer.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer func() {
		if err := r.writer.Close(); err != nil {
			r.logger.Printf("relay: close writer error=%v", err)
		}
	}()

	r.logger.Printf("relay: started interval=%s batch=%d", r.interval, r.batch)
	for {
		select {
		case <-ctx.Done():
			r.logger.Printf("relay: stopped")
			return
		case <-ticker.C:
			for {
				n, err := r.Flush(ctx)
				if err != nil {
					if ctx.Err() == nil {
						r.logger.Printf("relay: flush error=%v", err)
					}
					break
				}
				if n < r.batch {
					break
				}
			}
		}
	}
}

// Flush publishes one batch of pending events and returns how many were sent.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	var sent int
	err := db.WithTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		pending, err := r.store.FetchPending(ctx, tx, r.batch)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		msgs := make([]kafka.Message, 0, len(pending))
		ids := make([]int64, 0, len(pending))
		for _, e := range pending {
			msgs = append(msgs, toMessage(e))
			ids = append(ids, e.ID)
		}
		if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		if err := r.store.MarkSent(ctx, tx, ids); err != nil {
			return err
		}
		sent = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if sent > 0 {
		r.logger.Printf("relay: published count=%d", sent)
	}
	return sent, nil
}

func toMessage(e outbox.Event) kafka.Message {
	return kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: e.Payload,
		Time:  e.CreatedAt.UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "event_id", Value: []byte(e.EventID.String())},
		},
	}
}

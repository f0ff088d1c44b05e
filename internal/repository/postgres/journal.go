package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

const maxAttempts = 3

const journalSchema = `CREATE TABLE IF NOT EXISTS order_events (
	id           BIGSERIAL PRIMARY KEY,
	event_id     UUID        NOT NULL UNIQUE,
	kind         TEXT        NOT NULL,
	order_id     BIGINT      NOT NULL,
	username     TEXT        NOT NULL,
	train_id     TEXT        NOT NULL,
	sale_day     TEXT        NOT NULL,
	from_station TEXT        NOT NULL,
	to_station   TEXT        NOT NULL,
	seats        INTEGER     NOT NULL,
	price        INTEGER     NOT NULL,
	status       TEXT        NOT NULL,
	occurred_at  TIMESTAMPTZ NOT NULL
)`

const journalIndex = `CREATE INDEX IF NOT EXISTS idx_order_events_user ON order_events (username, occurred_at)`

const insertEvent = `INSERT INTO order_events
	(event_id, kind, order_id, username, train_id, sale_day, from_station, to_station, seats, price, status, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// JournalRepo is an append-only audit log of order events. The engine never
// reads it back.
type JournalRepo struct {
	store *Store
}

func (r *JournalRepo) EnsureSchema(ctx context.Context) error {
	const op = "postgresrepo.JournalRepo.EnsureSchema"

	for _, stmt := range []string{journalSchema, journalIndex} {
		if _, err := r.store.pool.Exec(ctx, stmt); err != nil {
			return wrapDBErr(op, err)
		}
	}

	return nil
}

// Append writes events in one transaction, retrying serialization failures.
//
// Returns:
//   - error: repository.ErrConflict if an event ID was already journaled.
func (r *JournalRepo) Append(ctx context.Context, events ...domain.OrderEvent) error {
	const op = "postgresrepo.JournalRepo.Append"

	if len(events) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(events))
	for i := range ids {
		ids[i] = uuid.New()
	}

	var err error
	for range maxAttempts {
		err = r.store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
			for i, ev := range events {
				if _, err := tx.Exec(ctx, insertEvent,
					ids[i],
					string(ev.Kind),
					ev.OrderID,
					ev.Username,
					ev.TrainID,
					ev.SaleDay.String(),
					ev.From,
					ev.To,
					ev.Seats,
					ev.Price,
					string(ev.Status),
					ev.At,
				); err != nil {
					return err
				}
			}
			return nil
		})
		if !IsRetryable(err) {
			break
		}
	}

	return wrapDBErr(op, err)
}

// Deliver makes the journal an event sink.
func (r *JournalRepo) Deliver(ctx context.Context, events ...domain.OrderEvent) error {
	return r.Append(ctx, events...)
}

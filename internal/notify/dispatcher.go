package notify

import (
	"context"
	"log/slog"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

// Sink receives order events once the transaction that produced them has
// committed. Delivery is best effort: a failing sink never undoes a commit.
type Sink interface {
	Deliver(ctx context.Context, events ...domain.OrderEvent) error
}

type namedSink struct {
	name string
	sink Sink
}

// Dispatcher fans events out to every registered sink in registration order.
// A nil *Dispatcher drops events.
type Dispatcher struct {
	logger *slog.Logger
	sinks  []namedSink
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{logger: logger}
}

// Register adds a sink. It is not safe to call once delivery has started.
func (d *Dispatcher) Register(name string, s Sink) {
	d.sinks = append(d.sinks, namedSink{name: name, sink: s})
}

func (d *Dispatcher) Deliver(ctx context.Context, events ...domain.OrderEvent) {
	if d == nil || len(events) == 0 {
		return
	}

	for _, s := range d.sinks {
		if err := s.sink.Deliver(ctx, events...); err != nil {
			d.logger.Warn("order events not delivered",
				"sink", s.name,
				"count", len(events),
				"error", err,
			)
		}
	}
}

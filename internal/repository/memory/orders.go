package memory

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository"
)

// orderBook has its own mutex: user histories span many keys, so two
// transactions on different keys may append to the same history.
type orderBook struct {
	mu      sync.Mutex
	next    int64
	orders  map[int64]*domain.Order
	byUser  map[string][]int64
	pending map[Key][]int64
}

func newOrderBook() *orderBook {
	return &orderBook{
		orders:  make(map[int64]*domain.Order),
		byUser:  make(map[string][]int64),
		pending: make(map[Key][]int64),
	}
}

// OrderLedger owns orders and the pending queues. Status changes of orders
// on a key must happen under Tx.Lock of that key.
type OrderLedger struct {
	s *Store
}

func keyOf(o *domain.Order) Key {
	return Key{TrainID: o.TrainID, Day: o.SaleDay}
}

// Record assigns the next order ID, appends the order to its owner's history
// and queues it when pending.
func (l *OrderLedger) Record(o domain.Order) domain.Order {
	b := l.s.orders
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	o.ID = b.next
	if o.CreatedAt.IsZero() {
		o.CreatedAt = l.s.now()
	}

	stored := o
	b.orders[o.ID] = &stored
	b.byUser[o.Username] = append(b.byUser[o.Username], o.ID)

	if o.Status == domain.OrderPending {
		k := keyOf(&stored)
		b.pending[k] = append(b.pending[k], o.ID)
	}

	return o
}

// Get returns a copy of the order.
//
// Returns:
//   - error: repository.ErrNotFound for an unknown ID.
func (l *OrderLedger) Get(id int64) (domain.Order, error) {
	const op = "memory.OrderLedger.Get"

	b := l.s.orders
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return *o, nil
}

// NthRecent returns the user's nth most recent order, counting from 1.
//
// Returns:
//   - error: repository.ErrNotFound if the user has fewer than n orders.
func (l *OrderLedger) NthRecent(username string, n int) (domain.Order, error) {
	const op = "memory.OrderLedger.NthRecent"

	b := l.s.orders
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := b.byUser[username]
	if n < 1 || n > len(ids) {
		return domain.Order{}, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return *b.orders[ids[len(ids)-n]], nil
}

// Refund moves an order to refunded and settles its key in the same step, so
// History never sees the refund without the promotions it causes. If the
// order held seats, release returns them, then promote is offered the pending
// orders of the key in arrival order; an order it accepts becomes successful
// and the walk stops at the first one it declines. Caller holds the key.
//
// Returns:
//   - domain.Order: the order as it was before the refund.
//   - []domain.Order: the promoted orders, in arrival order.
//   - error: repository.ErrNotFound for an unknown ID.
//   - error: repository.ErrAlreadyRefunded if it was refunded before.
func (l *OrderLedger) Refund(
	id int64,
	release func(o domain.Order) error,
	promote func(p domain.Order) (bool, error),
) (domain.Order, []domain.Order, error) {
	const op = "memory.OrderLedger.Refund"

	b := l.s.orders
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return domain.Order{}, nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	prev := *o
	k := keyOf(o)

	switch o.Status {
	case domain.OrderRefunded:
		return prev, nil, fmt.Errorf("%s:%w", op, repository.ErrAlreadyRefunded)
	case domain.OrderPending:
		b.dequeue(k, id)
		o.Status = domain.OrderRefunded
		return prev, nil, nil
	}

	if err := release(prev); err != nil {
		return prev, nil, fmt.Errorf("%s:%w", op, err)
	}
	o.Status = domain.OrderRefunded

	var promoted []domain.Order
	for _, pid := range slices.Clone(b.pending[k]) {
		p := b.orders[pid]

		fits, err := promote(*p)
		if err != nil {
			return prev, promoted, fmt.Errorf("%s:%w", op, err)
		}
		if !fits {
			break
		}

		b.dequeue(k, pid)
		p.Status = domain.OrderSuccess
		promoted = append(promoted, *p)
	}

	return prev, promoted, nil
}

// Pending returns the queue of k in arrival order.
func (l *OrderLedger) Pending(k Key) []domain.Order {
	b := l.s.orders
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Order, 0, len(b.pending[k]))
	for _, id := range b.pending[k] {
		out = append(out, *b.orders[id])
	}

	return out
}

// History lists the user's orders, most recent first.
func (l *OrderLedger) History(username string) []domain.Order {
	b := l.s.orders
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := b.byUser[username]
	out := make([]domain.Order, 0, len(ids))
	for _, id := range slices.Backward(ids) {
		out = append(out, *b.orders[id])
	}

	return out
}

func (b *orderBook) dequeue(k Key, id int64) {
	q := b.pending[k]
	if i := slices.Index(q, id); i >= 0 {
		q = slices.Delete(q, i, i+1)
	}

	if len(q) == 0 {
		delete(b.pending, k)
		return
	}

	b.pending[k] = q
}

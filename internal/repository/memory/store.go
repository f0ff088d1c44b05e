package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

// Key partitions seat and pending-queue state: one train on one sale day.
type Key struct {
	TrainID string
	Day     domain.Day
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.TrainID, k.Day)
}

type TxOptions struct {
	// Exclusive stops every other transaction; used for timetable changes.
	Exclusive bool
	// ReadOnly transactions may only Read keys.
	ReadOnly bool
}

// Store is the in-memory engine state. Timetable and station index are
// guarded by mu; seats and pending queues are partitioned by Key.
type Store struct {
	mu       sync.RWMutex
	trains   map[string]*domain.Train
	seats    map[string]*seatTable
	stations map[string][]Stop

	orders *orderBook

	keys    sync.Map // Key -> *sync.RWMutex
	epoch   atomic.Value
	version atomic.Uint64
	now     func() time.Time
}

func NewStore() *Store {
	s := &Store{now: time.Now}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.trains = make(map[string]*domain.Train)
	s.seats = make(map[string]*seatTable)
	s.stations = make(map[string][]Stop)
	s.orders = newOrderBook()
	s.epoch.Store(uuid.NewString())
	s.version.Store(0)
}

// Namespace changes whenever committed state changes. Readers use it to
// build cache keys that can never serve data older than the last commit.
func (s *Store) Namespace() string {
	return fmt.Sprintf("%s.%d", s.epoch.Load().(string), s.version.Load())
}

// RunTx runs fn as one indivisible step. Non-exclusive transactions share the
// timetable with each other; writers additionally Lock exactly one Key.
func (s *Store) RunTx(
	ctx context.Context,
	opts *TxOptions,
	fn func(ctx context.Context, tx *Tx) error,
) error {
	var o TxOptions
	if opts != nil {
		o = *opts
	}

	if o.Exclusive {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	tx := &Tx{store: s, opts: o}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if !o.ReadOnly {
		s.version.Add(1)
	}

	return nil
}

// Reset drops every train, seat and order and rotates the namespace.
func (s *Store) Reset(ctx context.Context) error {
	return s.RunTx(ctx, &TxOptions{Exclusive: true}, func(ctx context.Context, tx *Tx) error {
		s.reset()
		return nil
	})
}

func (s *Store) keyLock(k Key) *sync.RWMutex {
	l, _ := s.keys.LoadOrStore(k, &sync.RWMutex{})
	return l.(*sync.RWMutex)
}

func (s *Store) Trains() *TrainRepo      { return &TrainRepo{s: s} }
func (s *Store) Seats() *SeatLedger      { return &SeatLedger{s: s} }
func (s *Store) Stations() *StationIndex { return &StationIndex{s: s} }
func (s *Store) Orders() *OrderLedger    { return &OrderLedger{s: s} }

// Tx is handed to RunTx callbacks.
type Tx struct {
	store  *Store
	opts   TxOptions
	locked *Key
	unlock func()
}

// Lock enters the critical section of k for the rest of the transaction.
// A transaction holds at most one key, so lock ordering cannot deadlock.
func (tx *Tx) Lock(k Key) {
	if tx.opts.ReadOnly {
		panic("memory: Lock in read-only transaction")
	}
	if tx.opts.Exclusive {
		return
	}
	if tx.locked != nil {
		if *tx.locked == k {
			return
		}
		panic(fmt.Sprintf("memory: transaction already holds %s, cannot lock %s", tx.locked, k))
	}

	l := tx.store.keyLock(k)
	l.Lock()
	tx.locked = &k
	tx.unlock = l.Unlock
}

// Read runs fn with a consistent view of k.
func (tx *Tx) Read(k Key, fn func()) {
	if tx.opts.Exclusive || (tx.locked != nil && *tx.locked == k) {
		fn()
		return
	}

	l := tx.store.keyLock(k)
	l.RLock()
	defer l.RUnlock()
	fn()
}

func (tx *Tx) release() {
	if tx.unlock != nil {
		tx.unlock()
		tx.unlock = nil
	}
}

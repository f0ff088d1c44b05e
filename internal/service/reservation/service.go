package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/notify"
	"github.com/kirinyoku/tix-rail/internal/repository"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
	redisrepo "github.com/kirinyoku/tix-rail/internal/repository/redis"
	"github.com/kirinyoku/tix-rail/internal/uow"
)

type Config struct {
	// Now stamps order events. Defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store   *memory.Store
	events  *notify.Dispatcher
	changes *redisrepo.EventsPubSub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
	logger  *slog.Logger
	cfg     Config
}

func New(
	store *memory.Store,
	events *notify.Dispatcher,
	changes *redisrepo.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:   store,
		events:  events,
		changes: changes,
		limiter: limiter,
		uow:     uow.NewUoW(store),
		logger:  logger,
		cfg:     cfg,
	}
}

type PurchaseRequest struct {
	Username string
	TrainID  string
	// Date is the day the passenger leaves From.
	Date        domain.Day
	From        string
	To          string
	Seats       int
	QueueIfFull bool
}

// Purchase buys seats on one train between two of its stops.
//
// Parameters:
//   - ctx: request-scoped context.
//   - req: the purchase; req.Date is the departure date at req.From.
//
// Returns:
//   - domain.Receipt: the order ID, its status and the total price.
//   - error: reservation.ErrTrainNotFound if the train does not exist.
//   - error: reservation.ErrNotReleased if the train is not on sale yet.
//   - error: reservation.ErrInvalidRoute if the stops are missing or out of order.
//   - error: reservation.ErrDateOutOfRange if the date is outside the sale window.
//   - error: reservation.ErrInsufficientSeats if the seats cannot be sold and
//     queueing was not requested, or the request can never be satisfied.
//   - error: reservation.ErrRateLimited (as RateLimitedError) if the user is throttled.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest) (domain.Receipt, error) {
	const op = "service.reservation.Purchase"

	if err := s.allow(ctx, req.Username); err != nil {
		return domain.Receipt{}, fmt.Errorf("%s:%w", op, err)
	}

	var receipt domain.Receipt

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx *memory.Tx,
		after func(uow.AfterCommit),
	) error {
		train, err := s.store.Trains().Get(req.TrainID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrTrainNotFound
			}

			return err
		}

		if !train.Released {
			return ErrNotReleased
		}

		i, j := train.StationIndex(req.From), train.StationIndex(req.To)
		if i < 0 || j < 0 || i >= j {
			return ErrInvalidRoute
		}

		day := train.SaleDayFor(i, req.Date)
		if !train.OnSale(day) {
			return ErrDateOutOfRange
		}

		if req.Seats < 1 || req.Seats > train.SeatNum {
			return ErrInsufficientSeats
		}

		tx.Lock(memory.Key{TrainID: train.ID, Day: day})

		avail, err := s.store.Seats().MinRemaining(train.ID, day, i, j)
		if err != nil {
			return err
		}

		order := domain.Order{
			Username: req.Username,
			TrainID:  train.ID,
			SaleDay:  day,
			From:     req.From,
			To:       req.To,
			FromIdx:  i,
			ToIdx:    j,
			Leaving:  domain.StampAt(day, train.Departure(i)),
			Arriving: domain.StampAt(day, train.Arrival(j)),
			Seats:    req.Seats,
			Price:    train.Fare(i, j),
		}

		kind := domain.OrderPlaced
		switch {
		case avail >= req.Seats:
			if err := s.store.Seats().Adjust(train.ID, day, i, j, -req.Seats); err != nil {
				return err
			}
			order.Status = domain.OrderSuccess
		case req.QueueIfFull:
			order.Status = domain.OrderPending
			kind = domain.OrderQueued
		default:
			return ErrInsufficientSeats
		}

		order = s.store.Orders().Record(order)
		receipt = domain.Receipt{
			OrderID: order.ID,
			Status:  order.Status,
			Total:   order.Total(),
		}

		after(func(ctx context.Context) {
			s.events.Deliver(ctx, domain.NewOrderEvent(kind, order, s.cfg.Now()))
			if order.Status == domain.OrderSuccess {
				s.publishChanged(ctx, order.TrainID, order.SaleDay)
			}
		})

		return nil
	})
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%s:%w", op, err)
	}

	return receipt, nil
}

// Refund cancels the user's nth most recent order. A successful order frees
// its seats, and pending orders on the same train and day are then promoted
// strictly in arrival order until the first one that still does not fit.
//
// Parameters:
//   - ctx: request-scoped context.
//   - username: owner of the order.
//   - n: position in the user's history, 1 is the most recent order.
//
// Returns:
//   - error: reservation.ErrOrderNotFound if the user has fewer than n orders.
//   - error: reservation.ErrAlreadyRefunded if the order was refunded before.
func (s *Service) Refund(ctx context.Context, username string, n int) error {
	const op = "service.reservation.Refund"

	for {
		err := s.refund(ctx, username, n)
		if errors.Is(err, errTargetMoved) && ctx.Err() == nil {
			continue
		}

		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	}
}

// errTargetMoved means the user's history changed between picking the nth
// order and locking its key.
var errTargetMoved = errors.New("refund target moved")

// refundLookedUp runs between the history lookup and the key lock.
var refundLookedUp = func() {}

func (s *Service) refund(ctx context.Context, username string, n int) error {
	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx *memory.Tx,
		after func(uow.AfterCommit),
	) error {
		target, err := s.nthRecent(username, n)
		if err != nil {
			return err
		}

		refundLookedUp()

		key := memory.Key{TrainID: target.TrainID, Day: target.SaleDay}
		tx.Lock(key)

		// a purchase on key may have committed while we waited for it
		current, err := s.nthRecent(username, n)
		if err != nil {
			return err
		}
		if current.ID != target.ID {
			return errTargetMoved
		}

		seats := s.store.Seats()
		prev, promoted, err := s.store.Orders().Refund(
			target.ID,
			func(o domain.Order) error {
				return seats.Adjust(o.TrainID, o.SaleDay, o.FromIdx, o.ToIdx, o.Seats)
			},
			func(p domain.Order) (bool, error) {
				avail, err := seats.MinRemaining(p.TrainID, p.SaleDay, p.FromIdx, p.ToIdx)
				if err != nil || avail < p.Seats {
					return false, err
				}

				return true, seats.Adjust(p.TrainID, p.SaleDay, p.FromIdx, p.ToIdx, -p.Seats)
			},
		)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrAlreadyRefunded):
				return ErrAlreadyRefunded
			case errors.Is(err, repository.ErrNotFound):
				return ErrOrderNotFound
			}

			return err
		}

		refunded := prev
		refunded.Status = domain.OrderRefunded
		now := s.cfg.Now()

		events := []domain.OrderEvent{domain.NewOrderEvent(domain.OrderRevoked, refunded, now)}
		for _, o := range promoted {
			events = append(events, domain.NewOrderEvent(domain.OrderPromoted, o, now))
		}

		after(func(ctx context.Context) {
			s.events.Deliver(ctx, events...)
			if prev.Status == domain.OrderSuccess {
				s.publishChanged(ctx, key.TrainID, key.Day)
			}
		})

		return nil
	})
}

func (s *Service) nthRecent(username string, n int) (domain.Order, error) {
	o, err := s.store.Orders().NthRecent(username, n)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Order{}, ErrOrderNotFound
	}

	return o, err
}

func (s *Service) allow(ctx context.Context, username string) error {
	if s.limiter == nil || username == "" {
		return nil
	}

	v, err := s.limiter.Allow(ctx, "user:"+username)
	if err != nil {
		// the limiter is advisory, a redis outage must not stop sales
		s.logger.Warn("rate limiter unavailable", "op", "service.reservation.allow", "error", err)
		return nil
	}

	if !v.Allowed {
		return RateLimitedError{RetryAfter: v.RetryAfter}
	}

	return nil
}

func (s *Service) publishChanged(ctx context.Context, trainID string, day domain.Day) {
	if s.changes == nil {
		return
	}

	if err := s.changes.PublishTrainChanged(ctx, trainID, day); err != nil {
		s.logger.Warn("train change not published", "op", "service.reservation.publishChanged", "train_id", trainID, "day", day.String(), "error", err)
	}
}

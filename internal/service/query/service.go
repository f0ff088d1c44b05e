package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
	redisrepo "github.com/kirinyoku/tix-rail/internal/repository/redis"
)

var readOnly = &memory.TxOptions{ReadOnly: true}

type Config struct {
	TrainTTL    time.Duration
	TicketsTTL  time.Duration
	TransferTTL time.Duration
}

type Service struct {
	store *memory.Store
	cache *redisrepo.Cache
	cfg   Config
}

// New builds the read side. cache may be nil, then every query hits the store.
func New(store *memory.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.TrainTTL <= 0 {
		cfg.TrainTTL = 30 * time.Second
	}

	if cfg.TicketsTTL <= 0 {
		cfg.TicketsTTL = 30 * time.Second
	}

	if cfg.TransferTTL <= 0 {
		cfg.TransferTTL = 30 * time.Second
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// QueryTrain lists every stop of a train for the given sale date.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: train ID.
//   - date: the day the train leaves its origin.
//
// Returns:
//   - *domain.TrainItinerary: one row per stop. Seats on a row is the
//     minimum free seat count from that stop to the terminus; unreleased
//     trains report full capacity.
//   - error: query.ErrTrainNotFound if the train does not exist.
//   - error: query.ErrDateOutOfRange if date is outside the sale window.
func (s *Service) QueryTrain(ctx context.Context, id string, date domain.Day) (*domain.TrainItinerary, error) {
	const op = "service.query.QueryTrain"

	key := redisrepo.KeyTrain(s.store.Namespace(), id, date)

	it, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.TrainTTL,
		func(ctx context.Context) (domain.TrainItinerary, error) {
			var out domain.TrainItinerary
			err := s.store.RunTx(ctx, readOnly, func(ctx context.Context, tx *memory.Tx) error {
				var err error
				out, err = s.itinerary(tx, id, date)
				return err
			})
			return out, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &it, nil
}

// QueryTickets lists direct trains that leave from on date and later call at to.
//
// Parameters:
//   - ctx: request-scoped context.
//   - from, to: station names.
//   - date: the day the passenger leaves from.
//   - sort: domain.SortByTime or domain.SortByCost, ties broken by train ID.
//
// Returns:
//   - []domain.ItinerarySummary: possibly empty, never nil.
//   - error: query.ErrInvalidSort for an unknown sort key.
func (s *Service) QueryTickets(
	ctx context.Context,
	from, to string,
	date domain.Day,
	sort domain.SortKey,
) ([]domain.ItinerarySummary, error) {
	const op = "service.query.QueryTickets"

	sort, err := normalizeSort(sort)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	key := redisrepo.KeyTickets(s.store.Namespace(), from, to, date, string(sort))

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.TicketsTTL,
		func(ctx context.Context) ([]domain.ItinerarySummary, error) {
			var res []domain.ItinerarySummary
			err := s.store.RunTx(ctx, readOnly, func(ctx context.Context, tx *memory.Tx) error {
				var err error
				res, err = s.direct(tx, from, to, date, sort)
				return err
			})
			return res, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if out == nil {
		out = []domain.ItinerarySummary{}
	}

	return out, nil
}

// QueryTransfer finds the best trip with exactly one change of train.
//
// Parameters:
//   - ctx: request-scoped context.
//   - from, to: station names.
//   - date: the day the passenger leaves from.
//   - sort: the metric to minimise; the other metric breaks ties, then the
//     pair of train IDs.
//
// Returns:
//   - *domain.TransferPlan: the best plan, or nil if none exists.
//   - error: query.ErrInvalidSort for an unknown sort key.
func (s *Service) QueryTransfer(
	ctx context.Context,
	from, to string,
	date domain.Day,
	sort domain.SortKey,
) (*domain.TransferPlan, error) {
	const op = "service.query.QueryTransfer"

	sort, err := normalizeSort(sort)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	key := redisrepo.KeyTransfer(s.store.Namespace(), from, to, date, string(sort))

	plan, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.TransferTTL,
		func(ctx context.Context) (*domain.TransferPlan, error) {
			var res *domain.TransferPlan
			err := s.store.RunTx(ctx, readOnly, func(ctx context.Context, tx *memory.Tx) error {
				var err error
				res, err = s.transfer(tx, from, to, date, sort)
				return err
			})
			return res, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return plan, nil
}

func (s *Service) itinerary(tx *memory.Tx, id string, date domain.Day) (domain.TrainItinerary, error) {
	train, err := s.store.Trains().Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.TrainItinerary{}, ErrTrainNotFound
		}

		return domain.TrainItinerary{}, err
	}

	if !train.OnSale(date) {
		return domain.TrainItinerary{}, ErrDateOutOfRange
	}

	n := train.StationNum()
	seats := make([]int, n-1)
	for i := range seats {
		seats[i] = train.SeatNum
	}

	if train.Released {
		var err error
		tx.Read(memory.Key{TrainID: id, Day: date}, func() {
			for i := range seats {
				if seats[i], err = s.store.Seats().MinRemaining(id, date, i, n-1); err != nil {
					return
				}
			}
		})
		if err != nil {
			return domain.TrainItinerary{}, err
		}
	}

	rows := make([]domain.StationRow, n)
	for i, name := range train.Stations {
		row := domain.StationRow{Station: name, Price: train.Prices[i]}

		if i > 0 {
			arr := domain.StampAt(date, train.Arrival(i))
			row.Arriving = &arr
		}

		if i < n-1 {
			dep := domain.StampAt(date, train.Departure(i))
			row.Leaving = &dep
			row.Seats = &seats[i]
		}

		rows[i] = row
	}

	return domain.TrainItinerary{TrainID: train.ID, Type: train.Type, Rows: rows}, nil
}

func normalizeSort(k domain.SortKey) (domain.SortKey, error) {
	switch k {
	case "", domain.SortByTime:
		return domain.SortByTime, nil
	case domain.SortByCost:
		return domain.SortByCost, nil
	}

	return "", ErrInvalidSort
}

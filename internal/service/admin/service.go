package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
	redisrepo "github.com/kirinyoku/tix-rail/internal/repository/redis"
	"github.com/kirinyoku/tix-rail/internal/uow"
)

var exclusive = &memory.TxOptions{Exclusive: true}

type Service struct {
	store    *memory.Store
	changes  *redisrepo.EventsPubSub
	uow      *uow.UoW
	validate *validator.Validate
	logger   *slog.Logger
}

func New(store *memory.Store, changes *redisrepo.EventsPubSub, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:    store,
		changes:  changes,
		uow:      uow.NewUoW(store),
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateTrain validates spec and adds an unreleased train to the timetable.
//
// Parameters:
//   - ctx: request-scoped context.
//   - spec: the parsed train; prices are per leg.
//
// Returns:
//   - error: admin.ErrInvalidSpec if a field is out of range or the per-leg
//     counts do not match the number of stations.
//   - error: admin.ErrDuplicateTrain if the ID is taken.
func (s *Service) CreateTrain(ctx context.Context, spec domain.TrainSpec) error {
	const op = "service.admin.CreateTrain"

	if err := s.checkSpec(spec); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	err := s.uow.DoWithOpts(ctx, exclusive, func(
		ctx context.Context,
		tx *memory.Tx,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Trains().Create(domain.NewTrain(spec)); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrDuplicateTrain
			}

			return err
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// ReleaseTrain opens a train for sale. Its timetable is frozen from then on.
//
// Returns:
//   - error: admin.ErrTrainNotFound if the train does not exist.
//   - error: admin.ErrAlreadyReleased if it is already on sale.
func (s *Service) ReleaseTrain(ctx context.Context, id string) error {
	const op = "service.admin.ReleaseTrain"

	err := s.uow.DoWithOpts(ctx, exclusive, func(
		ctx context.Context,
		tx *memory.Tx,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Trains().Release(id); err != nil {
			return mapTrainErr(err)
		}

		after(func(ctx context.Context) {
			s.publish(ctx, id)
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// RemoveTrain deletes an unreleased train.
//
// Returns:
//   - error: admin.ErrTrainNotFound if the train does not exist.
//   - error: admin.ErrAlreadyReleased if the train is on sale.
func (s *Service) RemoveTrain(ctx context.Context, id string) error {
	const op = "service.admin.RemoveTrain"

	err := s.uow.DoWithOpts(ctx, exclusive, func(
		ctx context.Context,
		tx *memory.Tx,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Trains().Remove(id); err != nil {
			return mapTrainErr(err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Reset drops every train, seat and order.
func (s *Service) Reset(ctx context.Context) error {
	const op = "service.admin.Reset"

	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	s.logger.Info("engine reset")
	s.publish(ctx, "")

	return nil
}

func (s *Service) checkSpec(spec domain.TrainSpec) error {
	if err := s.validate.Struct(spec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	n := len(spec.Stations)
	switch {
	case len(spec.Prices) != n-1:
		return fmt.Errorf("%w: want %d prices, got %d", ErrInvalidSpec, n-1, len(spec.Prices))
	case len(spec.TravelTimes) != n-1:
		return fmt.Errorf("%w: want %d travel times, got %d", ErrInvalidSpec, n-1, len(spec.TravelTimes))
	case len(spec.StopoverTimes) != n-2:
		return fmt.Errorf("%w: want %d stopover times, got %d", ErrInvalidSpec, n-2, len(spec.StopoverTimes))
	}

	return nil
}

func mapTrainErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrTrainNotFound
	case errors.Is(err, repository.ErrAlreadyReleased):
		return ErrAlreadyReleased
	}

	return err
}

// publish announces a timetable change; an empty id means everything changed.
func (s *Service) publish(ctx context.Context, id string) {
	if s.changes == nil {
		return
	}

	if err := s.changes.PublishTimetableChanged(ctx, id); err != nil {
		s.logger.Warn("timetable change not published", "op", "service.admin.publish", "train_id", id, "error", err)
	}
}

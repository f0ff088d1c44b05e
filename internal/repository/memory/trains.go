package memory

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository"
)

// TrainRepo is the timetable. Callers must hold a transaction; returned
// trains are shared and must be treated as read-only.
type TrainRepo struct {
	s *Store
}

// Get returns the train with the given ID.
//
// Returns:
//   - *domain.Train: the timetable record.
//   - error: repository.ErrNotFound if the train does not exist.
func (r *TrainRepo) Get(id string) (*domain.Train, error) {
	const op = "memory.TrainRepo.Get"

	t, ok := r.s.trains[id]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return t, nil
}

// Create stores a train, fills its seat table for the whole sale window and
// registers its stops in the station index. Requires an exclusive transaction.
//
// Returns:
//   - error: repository.ErrConflict if the ID is taken.
func (r *TrainRepo) Create(t *domain.Train) error {
	const op = "memory.TrainRepo.Create"

	if _, ok := r.s.trains[t.ID]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	r.s.trains[t.ID] = t
	r.s.seats[t.ID] = newSeatTable(t)
	r.s.Stations().add(t)

	return nil
}

// Release opens a train for sale. Requires an exclusive transaction.
//
// Returns:
//   - error: repository.ErrNotFound if the train does not exist.
//   - error: repository.ErrAlreadyReleased if it was released before.
func (r *TrainRepo) Release(id string) error {
	const op = "memory.TrainRepo.Release"

	t, ok := r.s.trains[id]
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if t.Released {
		return fmt.Errorf("%s:%w", op, repository.ErrAlreadyReleased)
	}

	t.Released = true

	return nil
}

// Remove deletes an unreleased train together with its seats and stops.
// Requires an exclusive transaction.
//
// Returns:
//   - error: repository.ErrNotFound if the train does not exist.
//   - error: repository.ErrAlreadyReleased if the train is on sale.
func (r *TrainRepo) Remove(id string) error {
	const op = "memory.TrainRepo.Remove"

	t, ok := r.s.trains[id]
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if t.Released {
		return fmt.Errorf("%s:%w", op, repository.ErrAlreadyReleased)
	}

	delete(r.s.trains, id)
	delete(r.s.seats, id)
	r.s.Stations().rebuild()

	return nil
}

// All yields trains in ID order.
func (r *TrainRepo) All() iter.Seq[*domain.Train] {
	return func(yield func(*domain.Train) bool) {
		for _, id := range slices.Sorted(maps.Keys(r.s.trains)) {
			if !yield(r.s.trains[id]) {
				return
			}
		}
	}
}

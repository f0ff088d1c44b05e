package memory

import (
	"fmt"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository"
)

// seatTable holds remaining seats per sale day and per segment; segment k
// is the leg between stops k and k+1.
type seatTable struct {
	start    domain.Day
	capacity int
	days     [][]int
}

func newSeatTable(t *domain.Train) *seatTable {
	st := &seatTable{
		start:    t.SaleStart,
		capacity: t.SeatNum,
		days:     make([][]int, int(t.SaleEnd-t.SaleStart)+1),
	}

	for d := range st.days {
		row := make([]int, t.StationNum()-1)
		for k := range row {
			row[k] = t.SeatNum
		}
		st.days[d] = row
	}

	return st
}

// SeatLedger answers and applies range operations over segments [i, j).
// Reads need Tx.Read on the key, writes need Tx.Lock.
type SeatLedger struct {
	s *Store
}

func (l *SeatLedger) row(op, trainID string, day domain.Day, i, j int) ([]int, int, error) {
	st, ok := l.s.seats[trainID]
	if !ok {
		return nil, 0, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	d := int(day - st.start)
	if d < 0 || d >= len(st.days) {
		return nil, 0, fmt.Errorf("%s:%w", op, repository.ErrDateOutOfRange)
	}

	row := st.days[d]
	if i < 0 || j > len(row) || i >= j {
		return nil, 0, fmt.Errorf("%s:%w", op, repository.ErrInvalidRoute)
	}

	return row, st.capacity, nil
}

// MinRemaining returns the smallest remaining count over segments [i, j).
//
// Returns:
//   - error: repository.ErrNotFound for an unknown train.
//   - error: repository.ErrDateOutOfRange outside the sale window.
//   - error: repository.ErrInvalidRoute unless 0 <= i < j <= stations-1.
func (l *SeatLedger) MinRemaining(trainID string, day domain.Day, i, j int) (int, error) {
	const op = "memory.SeatLedger.MinRemaining"

	row, _, err := l.row(op, trainID, day, i, j)
	if err != nil {
		return 0, err
	}

	least := row[i]
	for _, v := range row[i+1 : j] {
		least = min(least, v)
	}

	return least, nil
}

// Adjust adds delta to every segment in [i, j). Callers check availability
// first; a result outside [0, capacity] is a broken invariant and panics.
func (l *SeatLedger) Adjust(trainID string, day domain.Day, i, j, delta int) error {
	const op = "memory.SeatLedger.Adjust"

	row, capacity, err := l.row(op, trainID, day, i, j)
	if err != nil {
		return err
	}

	for k := i; k < j; k++ {
		if v := row[k] + delta; v < 0 || v > capacity {
			panic(fmt.Sprintf(
				"memory: seat count out of range: train=%s day=%s segment=%d value=%d capacity=%d",
				trainID, day, k, v, capacity,
			))
		}
	}

	for k := i; k < j; k++ {
		row[k] += delta
	}

	return nil
}

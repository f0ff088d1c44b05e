package query

import (
	"cmp"
	"iter"
	"slices"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
)

// leg is a ride on one train between stops i and j on sale day day.
type leg struct {
	train *domain.Train
	day   domain.Day
	i, j  int
}

func (l leg) key() memory.Key {
	return memory.Key{TrainID: l.train.ID, Day: l.day}
}

func (l leg) summary() domain.ItinerarySummary {
	return domain.ItinerarySummary{
		TrainID:  l.train.ID,
		From:     l.train.Stations[l.i],
		To:       l.train.Stations[l.j],
		Leaving:  domain.StampAt(l.day, l.train.Departure(l.i)),
		Arriving: domain.StampAt(l.day, l.train.Arrival(l.j)),
		Price:    l.train.Fare(l.i, l.j),
	}
}

func (s *Service) seats(tx *memory.Tx, l leg) (int, error) {
	var (
		n   int
		err error
	)
	tx.Read(l.key(), func() {
		n, err = s.store.Seats().MinRemaining(l.train.ID, l.day, l.i, l.j)
	})
	return n, err
}

// boarding yields released trains that leave from on date, with the stop
// index of from and the matching sale day.
func (s *Service) boarding(from string, date domain.Day) iter.Seq2[*domain.Train, leg] {
	return func(yield func(*domain.Train, leg) bool) {
		for stop := range s.store.Stations().TrainsAt(from) {
			train, err := s.store.Trains().Get(stop.TrainID)
			if err != nil || !train.Released {
				continue
			}

			day := train.SaleDayFor(stop.Index, date)
			if !train.OnSale(day) {
				continue
			}

			if !yield(train, leg{train: train, day: day, i: stop.Index}) {
				return
			}
		}
	}
}

func (s *Service) direct(tx *memory.Tx, from, to string, date domain.Day, sort domain.SortKey) ([]domain.ItinerarySummary, error) {
	out := []domain.ItinerarySummary{}
	if from == to {
		return out, nil
	}

	for train, l := range s.boarding(from, date) {
		j, ok := s.store.Stations().Lookup(to, train.ID)
		if !ok || j <= l.i {
			continue
		}

		l.j = j
		sum := l.summary()
		n, err := s.seats(tx, l)
		if err != nil {
			return nil, err
		}
		sum.Seats = n
		out = append(out, sum)
	}

	slices.SortFunc(out, directOrder(sort))

	return out, nil
}

// transfers lazily yields every feasible (first, second) leg pair: the first
// train runs from `from` to some later stop, the second, a different train,
// leaves that stop no earlier than the first arrives and later calls at to.
// The second leg always uses the earliest such sale day.
func (s *Service) transfers(from, to string, date domain.Day) iter.Seq2[leg, leg] {
	return func(yield func(leg, leg) bool) {
		stations := s.store.Stations()

		for a, first := range s.boarding(from, date) {
			for k := first.i + 1; k < a.StationNum(); k++ {
				first.j = k
				arrive := domain.StampAt(first.day, a.Arrival(k))

				for stop := range stations.TrainsAt(a.Stations[k]) {
					if stop.TrainID == a.ID {
						continue
					}

					j, ok := stations.Lookup(to, stop.TrainID)
					if !ok || j <= stop.Index {
						continue
					}

					b, err := s.store.Trains().Get(stop.TrainID)
					if err != nil || !b.Released {
						continue
					}

					day, ok := earliestDay(b, stop.Index, arrive)
					if !ok {
						continue
					}

					if !yield(first, leg{train: b, day: day, i: stop.Index, j: j}) {
						return
					}
				}
			}
		}
	}
}

func (s *Service) transfer(tx *memory.Tx, from, to string, date domain.Day, sort domain.SortKey) (*domain.TransferPlan, error) {
	if from == to {
		return nil, nil
	}

	order := transferOrder(sort)

	var (
		best     *domain.TransferPlan
		bestLegs [2]leg
	)
	for first, second := range s.transfers(from, to, date) {
		plan := domain.TransferPlan{First: first.summary(), Second: second.summary()}
		if best == nil || order(plan, *best) < 0 {
			best = &plan
			bestLegs = [2]leg{first, second}
		}
	}

	if best == nil {
		return nil, nil
	}

	// seat counts do not affect the ranking, read them only for the winner
	var err error
	if best.First.Seats, err = s.seats(tx, bestLegs[0]); err != nil {
		return nil, err
	}
	if best.Second.Seats, err = s.seats(tx, bestLegs[1]); err != nil {
		return nil, err
	}

	return best, nil
}

// earliestDay returns the first sale day on which t leaves stop i at or
// after at.
func earliestDay(t *domain.Train, i int, at domain.Stamp) (domain.Day, bool) {
	need := int(at) - t.Departure(i)

	// ceil(need / MinutesPerDay); division truncates towards zero
	d := need / domain.MinutesPerDay
	if need > 0 && need%domain.MinutesPerDay != 0 {
		d++
	}

	day := max(domain.Day(d), t.SaleStart)
	if day > t.SaleEnd {
		return 0, false
	}

	return day, true
}

func directOrder(k domain.SortKey) func(a, b domain.ItinerarySummary) int {
	if k == domain.SortByCost {
		return func(a, b domain.ItinerarySummary) int {
			return cmp.Or(
				cmp.Compare(a.Price, b.Price),
				cmp.Compare(a.TrainID, b.TrainID),
			)
		}
	}

	return func(a, b domain.ItinerarySummary) int {
		return cmp.Or(
			cmp.Compare(a.Duration(), b.Duration()),
			cmp.Compare(a.TrainID, b.TrainID),
		)
	}
}

func transferOrder(k domain.SortKey) func(a, b domain.TransferPlan) int {
	primary, secondary := domain.TransferPlan.Duration, domain.TransferPlan.Price
	if k == domain.SortByCost {
		primary, secondary = secondary, primary
	}

	return func(a, b domain.TransferPlan) int {
		return cmp.Or(
			cmp.Compare(primary(a), primary(b)),
			cmp.Compare(secondary(a), secondary(b)),
			cmp.Compare(a.First.TrainID, b.First.TrainID),
			cmp.Compare(a.Second.TrainID, b.Second.TrainID),
		)
	}
}

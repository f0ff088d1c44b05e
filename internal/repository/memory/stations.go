package memory

import (
	"cmp"
	"iter"
	"slices"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

// Stop places a train at a station: Index is the stop position.
type Stop struct {
	TrainID string
	Index   int
}

// StationIndex maps station names to the trains calling there, ordered by train ID.
type StationIndex struct {
	s *Store
}

func compareStops(a, b Stop) int {
	return cmp.Compare(a.TrainID, b.TrainID)
}

func (x *StationIndex) add(t *domain.Train) {
	for i, name := range t.Stations {
		stops := x.s.stations[name]
		pos, _ := slices.BinarySearchFunc(stops, Stop{TrainID: t.ID}, compareStops)
		x.s.stations[name] = slices.Insert(stops, pos, Stop{TrainID: t.ID, Index: i})
	}
}

func (x *StationIndex) rebuild() {
	clear(x.s.stations)
	for t := range x.s.Trains().All() {
		x.add(t)
	}
}

// TrainsAt yields the stops at station in train ID order.
func (x *StationIndex) TrainsAt(station string) iter.Seq[Stop] {
	return slices.Values(x.s.stations[station])
}

// Lookup returns the stop position of trainID at station.
func (x *StationIndex) Lookup(station, trainID string) (int, bool) {
	stops := x.s.stations[station]
	pos, ok := slices.BinarySearchFunc(stops, Stop{TrainID: trainID}, compareStops)
	if !ok {
		return -1, false
	}

	return stops[pos].Index, true
}

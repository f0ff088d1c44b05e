package admin

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
)

func newService() (*Service, *memory.Store) {
	store := memory.NewStore()
	return New(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func validSpec() domain.TrainSpec {
	return domain.TrainSpec{
		ID:            "G101",
		Stations:      []string{"Beijing", "Jinan", "Nanjing", "Shanghai"},
		SeatNum:       100,
		Prices:        []int{200, 150, 100},
		StartTime:     7 * 60,
		TravelTimes:   []int{110, 120, 70},
		StopoverTimes: []int{5, 8},
		SaleStart:     0,
		SaleEnd:       30,
		Type:          "G",
	}
}

func TestCreateTrain(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	require.NoError(t, svc.CreateTrain(ctx, validSpec()))

	train, err := store.Trains().Get("G101")
	require.NoError(t, err)
	assert.False(t, train.Released)
	assert.Equal(t, []int{0, 200, 350, 450}, train.Prices)
	assert.Equal(t, 7*60+110, train.Arrival(1))
	assert.Equal(t, 7*60+110+5, train.Departure(1))

	err = svc.CreateTrain(ctx, validSpec())
	assert.ErrorIs(t, err, ErrDuplicateTrain)
}

func TestCreateTrainRejectsInvalidSpec(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*domain.TrainSpec)
	}{
		{"empty id", func(s *domain.TrainSpec) { s.ID = "" }},
		{"one station", func(s *domain.TrainSpec) {
			s.Stations = []string{"A"}
			s.Prices, s.TravelTimes, s.StopoverTimes = nil, nil, nil
		}},
		{"blank station", func(s *domain.TrainSpec) { s.Stations[2] = "" }},
		{"no seats", func(s *domain.TrainSpec) { s.SeatNum = 0 }},
		{"negative price", func(s *domain.TrainSpec) { s.Prices[0] = -1 }},
		{"zero travel time", func(s *domain.TrainSpec) { s.TravelTimes[1] = 0 }},
		{"start past midnight", func(s *domain.TrainSpec) { s.StartTime = 24 * 60 }},
		{"sale window reversed", func(s *domain.TrainSpec) { s.SaleStart, s.SaleEnd = 10, 9 }},
		{"long type", func(s *domain.TrainSpec) { s.Type = "GD" }},
		{"missing price", func(s *domain.TrainSpec) { s.Prices = s.Prices[:2] }},
		{"extra travel time", func(s *domain.TrainSpec) { s.TravelTimes = append(s.TravelTimes, 5) }},
		{"missing stopover", func(s *domain.TrainSpec) { s.StopoverTimes = s.StopoverTimes[:1] }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newService()
			spec := validSpec()
			tc.mutate(&spec)

			err := svc.CreateTrain(context.Background(), spec)
			assert.ErrorIs(t, err, ErrInvalidSpec)

			_, err = store.Trains().Get(spec.ID)
			assert.Error(t, err)
		})
	}
}

func TestReleaseAndRemove(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.ReleaseTrain(ctx, "G101"), ErrTrainNotFound)
	assert.ErrorIs(t, svc.RemoveTrain(ctx, "G101"), ErrTrainNotFound)

	require.NoError(t, svc.CreateTrain(ctx, validSpec()))
	require.NoError(t, svc.RemoveTrain(ctx, "G101"))
	// removal frees the ID
	require.NoError(t, svc.CreateTrain(ctx, validSpec()))

	before := store.Namespace()
	require.NoError(t, svc.ReleaseTrain(ctx, "G101"))
	assert.NotEqual(t, before, store.Namespace())

	assert.ErrorIs(t, svc.ReleaseTrain(ctx, "G101"), ErrAlreadyReleased)
	assert.ErrorIs(t, svc.RemoveTrain(ctx, "G101"), ErrAlreadyReleased)

	train, err := store.Trains().Get("G101")
	require.NoError(t, err)
	assert.True(t, train.Released)
}

func TestReset(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	require.NoError(t, svc.CreateTrain(ctx, validSpec()))
	before := store.Namespace()

	require.NoError(t, svc.Reset(ctx))

	assert.NotEqual(t, before, store.Namespace())
	_, err := store.Trains().Get("G101")
	assert.Error(t, err)
	require.NoError(t, svc.CreateTrain(ctx, validSpec()))
}

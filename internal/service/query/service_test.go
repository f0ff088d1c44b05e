package query

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
	"github.com/kirinyoku/tix-rail/internal/service/admin"
	"github.com/kirinyoku/tix-rail/internal/service/reservation"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type env struct {
	t     *testing.T
	admin *admin.Service
	res   *reservation.Service
	svc   *Service
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.NewStore()
	return &env{
		t:     t,
		admin: admin.New(store, nil, discard),
		res:   reservation.New(store, nil, nil, nil, discard, reservation.Config{}),
		svc:   New(store, nil, Config{}),
	}
}

// line adds a train with 10 minute stopovers, released on request.
func (e *env) line(id string, release bool, start string, stations []string, travel, prices []int, seats int) {
	e.t.Helper()

	clock, err := domain.ParseClock(start)
	require.NoError(e.t, err)

	stop := make([]int, len(stations)-2)
	for i := range stop {
		stop[i] = 10
	}

	ctx := context.Background()
	require.NoError(e.t, e.admin.CreateTrain(ctx, domain.TrainSpec{
		ID:            id,
		Stations:      stations,
		SeatNum:       seats,
		Prices:        prices,
		StartTime:     clock,
		TravelTimes:   travel,
		StopoverTimes: stop,
		SaleStart:     0,
		SaleEnd:       29,
		Type:          "G",
	}))
	if release {
		require.NoError(e.t, e.admin.ReleaseTrain(ctx, id))
	}
}

func (e *env) buy(user, train string, date domain.Day, from, to string, seats int) {
	e.t.Helper()
	_, err := e.res.Purchase(context.Background(), reservation.PurchaseRequest{
		Username: user, TrainID: train, Date: date, From: from, To: to, Seats: seats,
	})
	require.NoError(e.t, err)
}

func ids(items []domain.ItinerarySummary) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.TrainID)
	}
	return out
}

func TestQueryTrain(t *testing.T) {
	e := newEnv(t)
	e.line("T1", false, "08:00", []string{"A", "B", "C"}, []int{60, 60}, []int{100, 150}, 5)

	ctx := context.Background()

	it, err := e.svc.QueryTrain(ctx, "T1", 2)
	require.NoError(t, err)
	assert.Equal(t, "T1", it.TrainID)
	assert.Equal(t, "G", it.Type)
	require.Len(t, it.Rows, 3)
	for _, row := range it.Rows[:2] {
		require.NotNil(t, row.Seats)
		assert.Equal(t, 5, *row.Seats)
	}

	require.NoError(t, e.admin.ReleaseTrain(ctx, "T1"))
	e.buy("alice", "T1", 2, "B", "C", 2)

	it, err = e.svc.QueryTrain(ctx, "T1", 2)
	require.NoError(t, err)

	first, mid, last := it.Rows[0], it.Rows[1], it.Rows[2]

	assert.Nil(t, first.Arriving)
	assert.Equal(t, "06-03 08:00", first.Leaving.String())
	assert.Equal(t, 0, first.Price)
	assert.Equal(t, 3, *first.Seats)

	assert.Equal(t, "06-03 09:00", mid.Arriving.String())
	assert.Equal(t, "06-03 09:10", mid.Leaving.String())
	assert.Equal(t, 100, mid.Price)
	assert.Equal(t, 3, *mid.Seats)

	assert.Equal(t, "06-03 10:10", last.Arriving.String())
	assert.Nil(t, last.Leaving)
	assert.Nil(t, last.Seats)
	assert.Equal(t, 250, last.Price)

	// other days are untouched
	it, err = e.svc.QueryTrain(ctx, "T1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, *it.Rows[1].Seats)
}

func TestQueryTrainErrors(t *testing.T) {
	e := newEnv(t)
	e.line("T1", true, "08:00", []string{"A", "B"}, []int{60}, []int{100}, 5)

	ctx := context.Background()

	_, err := e.svc.QueryTrain(ctx, "nope", 0)
	assert.ErrorIs(t, err, ErrTrainNotFound)

	_, err = e.svc.QueryTrain(ctx, "T1", 30)
	assert.ErrorIs(t, err, ErrDateOutOfRange)

	_, err = e.svc.QueryTrain(ctx, "T1", -1)
	assert.ErrorIs(t, err, ErrDateOutOfRange)
}

func TestQueryTicketsOrdering(t *testing.T) {
	e := newEnv(t)
	// T1: 130 minutes for 200; T2, T3: 90 minutes for 300
	e.line("T1", true, "08:00", []string{"A", "B", "C"}, []int{60, 60}, []int{100, 100}, 5)
	e.line("T3", true, "09:00", []string{"A", "C"}, []int{90}, []int{300}, 5)
	e.line("T2", true, "07:00", []string{"A", "C"}, []int{90}, []int{300}, 5)
	e.line("T4", false, "06:00", []string{"A", "C"}, []int{10}, []int{1}, 5)
	e.line("T5", true, "06:00", []string{"C", "A"}, []int{10}, []int{1}, 5)

	ctx := context.Background()

	byTime, err := e.svc.QueryTickets(ctx, "A", "C", 4, domain.SortByTime)
	require.NoError(t, err)
	assert.Equal(t, []string{"T2", "T3", "T1"}, ids(byTime))

	byCost, err := e.svc.QueryTickets(ctx, "A", "C", 4, domain.SortByCost)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2", "T3"}, ids(byCost))

	def, err := e.svc.QueryTickets(ctx, "A", "C", 4, "")
	require.NoError(t, err)
	assert.Equal(t, ids(byTime), ids(def))

	t1 := byCost[0]
	assert.Equal(t, "A", t1.From)
	assert.Equal(t, "C", t1.To)
	assert.Equal(t, "06-05 08:00", t1.Leaving.String())
	assert.Equal(t, "06-05 10:10", t1.Arriving.String())
	assert.Equal(t, 200, t1.Price)
	assert.Equal(t, 5, t1.Seats)
}

func TestQueryTicketsSeatsAndMiddleStops(t *testing.T) {
	e := newEnv(t)
	e.line("T1", true, "08:00", []string{"A", "B", "C", "D"}, []int{60, 60, 60}, []int{100, 100, 100}, 5)
	e.buy("alice", "T1", 0, "C", "D", 4)

	res, err := e.svc.QueryTickets(context.Background(), "B", "C", 0, domain.SortByTime)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 5, res[0].Seats)
	assert.Equal(t, 100, res[0].Price)

	res, err = e.svc.QueryTickets(context.Background(), "B", "D", 0, domain.SortByTime)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 1, res[0].Seats)
}

func TestQueryTicketsEmpty(t *testing.T) {
	e := newEnv(t)
	e.line("T1", true, "08:00", []string{"A", "B"}, []int{60}, []int{100}, 5)

	ctx := context.Background()
	for _, tc := range []struct {
		name     string
		from, to string
		date     domain.Day
	}{
		{"same station", "A", "A", 0},
		{"unknown station", "A", "Z", 0},
		{"wrong direction", "B", "A", 0},
		{"outside sale window", "A", "B", 30},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.svc.QueryTickets(ctx, tc.from, tc.to, tc.date, domain.SortByTime)
			require.NoError(t, err)
			assert.NotNil(t, res)
			assert.Empty(t, res)
		})
	}

	_, err := e.svc.QueryTickets(ctx, "A", "B", 0, "fastest")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestQueryTransfer(t *testing.T) {
	e := newEnv(t)
	e.line("X1", true, "08:00", []string{"A", "B"}, []int{60}, []int{100}, 5)
	// same day connection: 180 minutes for 200
	e.line("Y1", true, "10:00", []string{"B", "C"}, []int{60}, []int{100}, 5)
	e.line("Y9", true, "10:00", []string{"B", "C"}, []int{60}, []int{100}, 5)
	// leaves B before X1 arrives, so the plan rides it the next day: 1530 minutes for 150
	e.line("Y2", true, "08:30", []string{"B", "C"}, []int{60}, []int{50}, 5)

	e.buy("alice", "X1", 0, "A", "B", 2)
	ctx := context.Background()

	plan, err := e.svc.QueryTransfer(ctx, "A", "C", 0, domain.SortByTime)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "X1", plan.First.TrainID)
	assert.Equal(t, "Y1", plan.Second.TrainID)
	assert.Equal(t, 180, plan.Duration())
	assert.Equal(t, 200, plan.Price())
	assert.Equal(t, 3, plan.First.Seats)
	assert.Equal(t, 5, plan.Second.Seats)

	plan, err = e.svc.QueryTransfer(ctx, "A", "C", 0, domain.SortByCost)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "Y2", plan.Second.TrainID)
	assert.Equal(t, "06-02 08:30", plan.Second.Leaving.String())
	assert.Equal(t, "06-02 09:30", plan.Second.Arriving.String())
	assert.Equal(t, 1530, plan.Duration())
	assert.Equal(t, 150, plan.Price())
}

func TestQueryTransferNone(t *testing.T) {
	e := newEnv(t)
	e.line("Z1", true, "08:00", []string{"A", "B", "C"}, []int{60, 60}, []int{100, 100}, 5)
	e.line("Z2", false, "12:00", []string{"B", "D"}, []int{60}, []int{100}, 5)

	ctx := context.Background()

	// one train cannot be both legs
	plan, err := e.svc.QueryTransfer(ctx, "A", "C", 0, domain.SortByTime)
	require.NoError(t, err)
	assert.Nil(t, plan)

	// unreleased connections do not count
	plan, err = e.svc.QueryTransfer(ctx, "A", "D", 0, domain.SortByTime)
	require.NoError(t, err)
	assert.Nil(t, plan)

	plan, err = e.svc.QueryTransfer(ctx, "A", "A", 0, domain.SortByTime)
	require.NoError(t, err)
	assert.Nil(t, plan)

	_, err = e.svc.QueryTransfer(ctx, "A", "D", 0, "cheap")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestQueryTransferPastLastSaleDay(t *testing.T) {
	e := newEnv(t)
	e.line("X1", true, "08:00", []string{"A", "B"}, []int{60}, []int{100}, 5)
	e.line("Y1", true, "06:00", []string{"B", "C"}, []int{60}, []int{100}, 5)

	// arriving at B on the last sale day, the next Y1 would be out of sale
	plan, err := e.svc.QueryTransfer(context.Background(), "A", "C", 29, domain.SortByTime)
	require.NoError(t, err)
	assert.Nil(t, plan)

	plan, err = e.svc.QueryTransfer(context.Background(), "A", "C", 28, domain.SortByTime)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "06-30 06:00", plan.Second.Leaving.String())
}

func TestSeatLookupErrorsSurface(t *testing.T) {
	e := newEnv(t)
	e.line("X1", true, "08:00", []string{"A", "B"}, []int{60}, []int{100}, 5)

	train, err := e.svc.store.Trains().Get("X1")
	require.NoError(t, err)

	err = e.svc.store.RunTx(context.Background(), readOnly, func(ctx context.Context, tx *memory.Tx) error {
		n, err := e.svc.seats(tx, leg{train: train, day: 0, i: 0, j: 1})
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		_, err = e.svc.seats(tx, leg{train: train, day: 99, i: 0, j: 1})
		return err
	})
	assert.ErrorIs(t, err, repository.ErrDateOutOfRange)
}

func TestEarliestDay(t *testing.T) {
	train := domain.NewTrain(domain.TrainSpec{
		ID:          "T1",
		Stations:    []string{"A", "B"},
		SeatNum:     1,
		Prices:      []int{1},
		StartTime:   10 * 60,
		TravelTimes: []int{60},
		SaleStart:   1,
		SaleEnd:     5,
		Type:        "G",
	})

	for _, tc := range []struct {
		name string
		at   domain.Stamp
		want domain.Day
		ok   bool
	}{
		{"same day before departure", domain.StampAt(2, 9*60), 2, true},
		{"exactly at departure", domain.StampAt(2, 10*60), 2, true},
		{"just missed", domain.StampAt(2, 10*60+1), 3, true},
		{"before sale window", domain.StampAt(0, 0), 1, true},
		{"after sale window", domain.StampAt(5, 11*60), 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			day, ok := earliestDay(train, 0, tc.at)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, day)
			}
		})
	}
}

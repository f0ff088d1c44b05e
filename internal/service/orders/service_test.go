package orders

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/tix-rail/internal/domain"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
	"github.com/kirinyoku/tix-rail/internal/service/admin"
	"github.com/kirinyoku/tix-rail/internal/service/reservation"
)

func TestHistory(t *testing.T) {
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	adm := admin.New(store, nil, logger)
	res := reservation.New(store, nil, nil, nil, logger, reservation.Config{})
	svc := New(store)

	ctx := context.Background()
	require.NoError(t, adm.CreateTrain(ctx, domain.TrainSpec{
		ID:          "K7",
		Stations:    []string{"A", "B"},
		SeatNum:     1,
		Prices:      []int{80},
		StartTime:   6 * 60,
		TravelTimes: []int{45},
		SaleStart:   0,
		SaleEnd:     9,
		Type:        "K",
	}))
	require.NoError(t, adm.ReleaseTrain(ctx, "K7"))

	hist, err := svc.History(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, hist)

	buy := func(user string, day domain.Day) {
		_, err := res.Purchase(ctx, reservation.PurchaseRequest{
			Username: user, TrainID: "K7", Date: day, From: "A", To: "B", Seats: 1, QueueIfFull: true,
		})
		require.NoError(t, err)
	}
	buy("alice", 1)
	buy("bob", 1)
	buy("alice", 2)

	hist, err = svc.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, domain.Day(2), hist[0].SaleDay)
	assert.Equal(t, domain.Day(1), hist[1].SaleDay)
	assert.Equal(t, domain.OrderSuccess, hist[0].Status)
	assert.Equal(t, 80, hist[0].Price)

	// alice's refund of the day 1 order promotes bob
	require.NoError(t, res.Refund(ctx, "alice", 2))

	hist, err = svc.History(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRefunded, hist[1].Status)

	hist, err = svc.History(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, domain.OrderSuccess, hist[0].Status)
}

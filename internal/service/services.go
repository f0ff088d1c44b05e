package service

import (
	"log/slog"

	"github.com/kirinyoku/tix-rail/internal/notify"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
	redisrepo "github.com/kirinyoku/tix-rail/internal/repository/redis"
	"github.com/kirinyoku/tix-rail/internal/service/admin"
	"github.com/kirinyoku/tix-rail/internal/service/orders"
	"github.com/kirinyoku/tix-rail/internal/service/query"
	"github.com/kirinyoku/tix-rail/internal/service/reservation"
)

type Services struct {
	Reservation *reservation.Service
	Query       *query.Service
	Admin       *admin.Service
	Orders      *orders.Service
}

type Config struct {
	Reservation reservation.Config
	Query       query.Config
}

// NewServices wires the services around one engine store. cache, pubsub and
// limiter are optional and may be nil.
func NewServices(
	store *memory.Store,
	events *notify.Dispatcher,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Reservation: reservation.New(store, events, pubsub, limiter, logger, cfg.Reservation),
		Query:       query.New(store, cache, cfg.Query),
		Admin:       admin.New(store, pubsub, logger),
		Orders:      orders.New(store),
	}
}

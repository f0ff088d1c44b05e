package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/tix-rail/internal/config"
	"github.com/kirinyoku/tix-rail/internal/notify"
	"github.com/kirinyoku/tix-rail/internal/postgres"
	"github.com/kirinyoku/tix-rail/internal/rabbitmq"
	"github.com/kirinyoku/tix-rail/internal/redis"
	"github.com/kirinyoku/tix-rail/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/tix-rail/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tix-rail/internal/repository/redis"
	"github.com/kirinyoku/tix-rail/internal/service"
	"github.com/kirinyoku/tix-rail/internal/service/query"
	"github.com/kirinyoku/tix-rail/internal/service/reservation"
	httpgin "github.com/kirinyoku/tix-rail/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	pool      *pgxpool.Pool
	rdb       *goredis.Client
	pubsub    *redisrepo.EventsPubSub
	publisher *rabbitmq.Publisher
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	store := memory.NewStore()
	events := notify.NewDispatcher(logger)

	if cfg.Postgres.Enabled {
		dsn := postgres.DSN(
			cfg.Postgres.User,
			cfg.Postgres.Password,
			cfg.Postgres.Host,
			cfg.Postgres.Port,
			cfg.Postgres.Name,
			cfg.Postgres.SSLMode,
		)

		pool, err := postgres.New(ctx, postgres.Config{DSN: dsn})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.pool = pool

		journal := postgresrepo.NewStore(pool).Journal()
		if err := journal.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to prepare order journal: %w", err)
		}
		events.Register("postgres", journal)
	}

	var (
		cache   *redisrepo.Cache
		limiter *redisrepo.SlidingWindowLimiter
		idem    *redisrepo.IdempotencyStore
	)
	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.rdb = rdb

		cache = redisrepo.New(rdb)
		a.pubsub = redisrepo.NewEventsPubSub(rdb)
		limiter = redisrepo.NewSlidingWindowLimiter(rdb, "purchase", cfg.Engine.PurchaseRateLimit, cfg.Engine.PurchaseRateWindow)
		idem = redisrepo.NewIdempotencyStore(rdb, cfg.Engine.IdempotencyTTL)
		events.Register("redis", a.pubsub)
	}

	if cfg.RabbitMQ.Enabled {
		pub, err := rabbitmq.Dial(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize rabbitmq: %w", err)
		}
		a.publisher = pub
		events.Register("rabbitmq", pub)
	}

	services := service.NewServices(store, events, cache, a.pubsub, limiter, logger, service.Config{
		Reservation: reservation.Config{},
		Query: query.Config{
			TrainTTL:    cfg.Engine.QueryCacheTTL,
			TicketsTTL:  cfg.Engine.QueryCacheTTL,
			TransferTTL: cfg.Engine.QueryCacheTTL,
		},
	})

	router := httpgin.NewRouter(services, idem, httpgin.AuthConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		AdminRole: cfg.Auth.AdminRole,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Train change feed
	if a.pubsub != nil {
		g.Go(func() error {
			err := a.pubsub.Subscribe(gCtx, func(ctx context.Context, change redisrepo.TrainChange) {
				a.logger.Debug("train changed",
					"type", change.Type,
					"train_id", change.TrainID,
					"day", change.Day,
				)
			})
			// a lost feed must not stop the server
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn("train change feed stopped", "error", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// close releases whatever New managed to open.
func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("rabbitmq close", "error", err)
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("redis close", "error", err)
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}
}

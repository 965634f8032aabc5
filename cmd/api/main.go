package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/bentonah/fitlog/internal/api"
	"github.com/bentonah/fitlog/internal/auth"
	"github.com/bentonah/fitlog/internal/config"
	"github.com/bentonah/fitlog/internal/domain"
	"github.com/bentonah/fitlog/internal/observability"
	"github.com/bentonah/fitlog/internal/outbox"
	"github.com/bentonah/fitlog/internal/persistence/memory"
	"github.com/bentonah/fitlog/internal/persistence/postgres"
	redisstore "github.com/bentonah/fitlog/internal/persistence/redis"
	httptransport "github.com/bentonah/fitlog/internal/transport/http"
)

// stores groups the repositories selected by configuration.
type stores struct {
	users    domain.UserRepository
	records  domain.RecordRepository
	sessions domain.SessionRepository
	pool     *pgxpool.Pool
}

func main() {
	cfg := config.Load()
	observability.SetupLogging(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, closeStores := openStores(ctx, cfg)
	defer closeStores()

	var dispatcher *outbox.Dispatcher
	if cfg.EventsEnabled() {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		dispatcher = outbox.NewDispatcher(outbox.NewPGStore(st.pool), producer, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)
		logrus.WithField("brokers", cfg.KafkaBrokers).Info("outbox dispatcher started")
	}

	sessions, err := auth.NewManager(auth.Config{
		Secret:       cfg.SessionSecret,
		Issuer:       cfg.SessionIssuer,
		TTL:          cfg.SessionTTL,
		CookieName:   cfg.SessionCookieName,
		CookieSecure: cfg.SessionCookieSecure,
	}, st.sessions, st.users, domain.SystemClock)
	if err != nil {
		logrus.WithError(err).Fatal("invalid session configuration")
	}

	handler := api.NewHandler(
		domain.NewCredentialService(st.users, cfg.BcryptCost, domain.SystemClock),
		domain.NewRecordService(st.records, domain.SystemClock),
		domain.NewQueryService(st.records, domain.SystemClock),
		sessions,
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	gate := auth.NewMiddleware(sessions, api.LoginPath, auth.PublicPaths(api.PublicRoutes...))
	routes := append([]string{"/", "/add_exercise", "/add_health_measurement", "/exercise_health_summary"}, api.PublicRoutes...)

	serverCfg := httptransport.ServerConfig{Address: cfg.HTTPAddress}
	logrus.WithField("storage", cfg.StorageBackend).Info("starting fitlog")
	if err := httptransport.Serve(ctx, serverCfg, httptransport.Instrument(gate.Wrap(mux), routes...)); err != nil {
		logrus.WithError(err).Error("server error")
	}
	cancel()

	if dispatcher != nil {
		dispatcher.Wait()
	}
}

func openStores(ctx context.Context, cfg config.Config) (stores, func()) {
	var st stores
	closers := make([]func(), 0, 2)

	switch cfg.StorageBackend {
	case config.BackendMemory:
		repo := memory.NewRepository()
		st.users, st.records, st.sessions = repo, repo, repo
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logrus.WithError(err).Fatal("failed to connect to postgres")
		}
		closers = append(closers, pool.Close)

		if cfg.AutoMigrate {
			if _, err := postgres.Migrate(ctx, pool); err != nil {
				logrus.WithError(err).Fatal("failed to apply migrations")
			}
		}

		var opts []postgres.Option
		if cfg.EventsEnabled() {
			opts = append(opts, postgres.WithEventOutbox())
		}
		repo := postgres.NewRepository(pool, opts...)
		st.users, st.records, st.sessions, st.pool = repo, repo, repo, pool
	default:
		logrus.WithField("backend", cfg.StorageBackend).Fatal("unknown storage backend")
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).Fatal("failed to connect to redis")
		}
		closers = append(closers, func() { _ = client.Close() })
		st.sessions = redisstore.NewSessionStore(client)
	}

	return st, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

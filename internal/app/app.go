package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tusharag6/homestead-api/internal/auth"
	"github.com/tusharag6/homestead-api/internal/config"
	"github.com/tusharag6/homestead-api/internal/event"
	handler "github.com/tusharag6/homestead-api/internal/handler/http"
	"github.com/tusharag6/homestead-api/internal/repository"
	"github.com/tusharag6/homestead-api/internal/repository/memory"
	"github.com/tusharag6/homestead-api/internal/repository/postgres"
	rediscache "github.com/tusharag6/homestead-api/internal/repository/redis"
	"github.com/tusharag6/homestead-api/internal/service"
	"github.com/tusharag6/homestead-api/migrations"
	"github.com/tusharag6/homestead-api/pkg/database"
	"github.com/tusharag6/homestead-api/pkg/health"
	pkgkafka "github.com/tusharag6/homestead-api/pkg/kafka"
	"github.com/tusharag6/homestead-api/pkg/middleware"
	"github.com/tusharag6/homestead-api/pkg/tracing"
)

const (
	serviceName    = "homestead-api"
	serviceVersion = "0.1.0"
)

// stores groups the repositories the services are built on.
type stores struct {
	users    repository.UserRepository
	listings repository.ListingRepository
	bookings repository.BookingRepository
}

// App wires together all dependencies and runs the API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	st, err := a.openStores(ctx, healthHandler)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	var cache repository.ListingCache
	if cfg.ListingCacheEnabled {
		if c := a.openCache(ctx, healthHandler); c != nil {
			cache = c
		}
	}

	var publisher service.EventPublisher = event.Discard{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return a.producer.Ping(ctx)
		})
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	authService := service.NewAuthService(
		st.users,
		auth.NewBcryptHasher(cfg.BcryptCost),
		newIssuer(cfg),
		publisher,
		service.AuthOptions{
			Paired:          cfg.Paired(),
			LoginIdentifier: cfg.LoginIdentifier,
			UniqueUsername:  cfg.UniquenessScope == config.ScopeEmailUsername,
		},
		logger,
	)
	listingService := service.NewListingService(st.listings, cache, logger)
	bookingService := service.NewBookingService(st.bookings, st.listings, publisher, logger)

	// HTTP router.
	router := handler.NewRouter(authService, listingService, bookingService, healthHandler, logger, handler.RouterOptions{
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowCredentials: true,
		},
		SecureCookies: cfg.SecureCookies(),
		ListingMaxAge: cfg.ListingCacheTTL,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openStores connects the configured storage driver and returns its
// repositories.
func (a *App) openStores(ctx context.Context, healthHandler *health.Handler) (*stores, error) {
	cfg := a.cfg

	uniqueUsername := cfg.UniquenessScope == config.ScopeEmailUsername

	if cfg.StorageDriver == config.StorageMemory {
		var userOpts []memory.UserOption
		if uniqueUsername {
			userOpts = append(userOpts, memory.WithUniqueUsername())
		}
		listings := memory.NewListingRepository()
		listings.Add(memory.SeedListings()...)
		a.logger.Warn("using in-memory storage; data is lost on restart")
		return &stores{
			users:    memory.NewUserRepository(userOpts...),
			listings: listings,
			bookings: memory.NewBookingRepository(listings),
		}, nil
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := prometheus.Register(database.NewPoolStatsCollector(pool, serviceName)); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}

	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	var userOpts []postgres.UserOption
	if uniqueUsername {
		userOpts = append(userOpts, postgres.WithUniqueUsername())
	}

	return &stores{
		users:    postgres.NewUserRepository(pool, userOpts...),
		listings: postgres.NewListingRepository(pool),
		bookings: postgres.NewBookingRepository(pool),
	}, nil
}

// openCache connects the Redis listing cache. Listings are served from the
// primary store when Redis is unreachable, so a failure here only disables
// the cache.
func (a *App) openCache(ctx context.Context, healthHandler *health.Handler) *rediscache.ListingCache {
	cfg := a.cfg

	client, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:         cfg.RedisHost,
		Port:         cfg.RedisPort,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err != nil {
		a.logger.Warn("listing cache disabled", slog.String("error", err.Error()))
		return nil
	}
	a.redis = client
	a.logger.Info("connected to Redis", slog.String("host", cfg.RedisHost), slog.Int("port", cfg.RedisPort))

	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})

	return rediscache.NewListingCache(client, cfg.ListingCacheTTL)
}

// newIssuer builds the token issuer for the configured token mode. Only the
// kinds of the active mode get a key.
func newIssuer(cfg *config.Config) *auth.Issuer {
	keys := map[auth.Kind]auth.Key{}
	if cfg.Paired() {
		keys[auth.KindAccess] = auth.Key{Secret: cfg.AccessTokenSecret, TTL: cfg.AccessTokenTTL}
		keys[auth.KindRefresh] = auth.Key{Secret: cfg.RefreshTokenSecret, TTL: cfg.RefreshTokenTTL}
	} else {
		keys[auth.KindSession] = auth.Key{Secret: cfg.TokenSecret, TTL: cfg.TokenTTL}
	}
	return auth.NewIssuer(keys)
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases everything but the HTTP server. Components that
// were never opened are skipped.
func (a *App) closeResources() error {
	var errs []error

	// Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	return errors.Join(errs...)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/cuidapet/clinic-api/internal/config"
	appointmentHandler "github.com/cuidapet/clinic-api/internal/handler/appointment"
	authHandler "github.com/cuidapet/clinic-api/internal/handler/auth"
	catalogHandler "github.com/cuidapet/clinic-api/internal/handler/catalog"
	fileHandler "github.com/cuidapet/clinic-api/internal/handler/file"
	"github.com/cuidapet/clinic-api/internal/handler/health"
	navigationHandler "github.com/cuidapet/clinic-api/internal/handler/navigation"
	petHandler "github.com/cuidapet/clinic-api/internal/handler/pet"
	userHandler "github.com/cuidapet/clinic-api/internal/handler/user"
	"github.com/cuidapet/clinic-api/internal/middleware"
	"github.com/cuidapet/clinic-api/internal/repository"
	"github.com/cuidapet/clinic-api/internal/repository/memory"
	"github.com/cuidapet/clinic-api/internal/repository/postgres"
	redisRepo "github.com/cuidapet/clinic-api/internal/repository/redis"
	"github.com/cuidapet/clinic-api/internal/router"
	appointmentService "github.com/cuidapet/clinic-api/internal/service/appointment"
	authService "github.com/cuidapet/clinic-api/internal/service/auth"
	catalogService "github.com/cuidapet/clinic-api/internal/service/catalog"
	petService "github.com/cuidapet/clinic-api/internal/service/pet"
	"github.com/cuidapet/clinic-api/internal/service/photo"
	userService "github.com/cuidapet/clinic-api/internal/service/user"
	"github.com/cuidapet/clinic-api/pkg/auth"
	"github.com/cuidapet/clinic-api/pkg/logger"
	"github.com/cuidapet/clinic-api/pkg/messaging"
	redisBroker "github.com/cuidapet/clinic-api/pkg/messaging/redis"
	"github.com/cuidapet/clinic-api/pkg/metrics"
	"github.com/cuidapet/clinic-api/pkg/security"
	"github.com/cuidapet/clinic-api/pkg/storage"
)

type repositories struct {
	users        repository.UserRepository
	pets         repository.PetRepository
	appointments repository.AppointmentRepository
	services     repository.ServiceRepository
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.NewLogger(&logger.Config{
		Level: logger.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	}).SetGlobal()

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	checks := map[string]health.Pinger{}

	// Repositories
	var repos repositories
	switch cfg.Database.Driver {
	case "memory":
		log.Warn().Msg("using in-memory repositories; data is lost on restart")
		store := memory.NewStore()
		repos = repositories{store.Users(), store.Pets(), store.Appointments(), store.Services()}
	default:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		if cfg.Database.Migrate {
			if err := postgres.Migrate(context.Background(), db); err != nil {
				log.Fatal().Err(err).Msg("failed to migrate database")
			}
		}
		checks["database"] = db
		repos = postgresRepositories(db)
	}

	// Sessions and events
	var (
		sessions repository.SessionStore
		broker   messaging.Broker = messaging.NoopBroker{}
	)
	if cfg.Redis.URL != "" {
		client, err := redisBroker.NewClient(redisBroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure Redis")
		}
		broker, err = redisBroker.NewRedisBroker(client, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		// Closes the shared client as well.
		defer broker.Close()

		sessions = redisRepo.NewSessionStore(client)
		checks["redis"] = health.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		log.Warn().Msg("redis not configured; sessions kept in memory and events dropped")
		sessions = memory.NewSessionStore(10 * time.Minute)
	}

	store, err := storage.NewLocalStore(storage.Config{
		Root:    cfg.Storage.Root,
		BaseURL: cfg.Storage.BaseURL,
		Secret:  cfg.Storage.Secret,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise file storage")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(cfg.Server.MetricsPrefix, registry)

	// Services
	photos := photo.New(store, cfg.Storage.SignedURLTTL)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)
	authSvc := authService.NewService(repos.users, sessions, jwtSvc, security.NewBcryptHasher(cfg.JWT.BcryptCost), m)
	userSvc := userService.NewService(repos.users, photos, m)
	petSvc := petService.NewService(repos.pets, repos.users, photos)
	catalogSvc := catalogService.NewService(repos.services, 5*time.Minute)
	appointmentSvc := appointmentService.NewService(
		repos.appointments, repos.pets, repos.services, repos.users, broker, m,
		appointmentService.Hours{Open: cfg.Clinic.OpeningTime, Close: cfg.Clinic.ClosingTime},
	)

	// Handlers
	authMw := middleware.NewAuthMiddleware(authSvc)
	r := router.NewRouter(router.RouterConfig{
		MetricsPrefix:  cfg.Server.MetricsPrefix,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, registry,
		health.NewHandler(registry, checks),
		authHandler.NewHandler(authSvc, authMw, rateLimit(cfg.RateLimit)),
		navigationHandler.NewHandler(authMw),
		userHandler.NewHandler(userSvc, authMw, cfg.Storage.MaxUpload),
		petHandler.NewHandler(petSvc, authMw, cfg.Storage.MaxUpload),
		appointmentHandler.NewHandler(appointmentSvc, authMw),
		catalogHandler.NewHandler(catalogSvc, authMw),
		fileHandler.NewHandler(store),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.CORS(cfg.CORS.AllowedOrigins, r.Engine()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("database", cfg.Database.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

// rateLimit returns the limiter for the public auth routes, or nil when
// disabled.
func rateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return nil
	}
	return middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(cfg.RequestsPerSecond),
		Burst: cfg.Burst,
	}).RateLimit()
}

func postgresRepositories(db *sqlx.DB) repositories {
	return repositories{
		users:        postgres.NewUserRepository(db),
		pets:         postgres.NewPetRepository(db),
		appointments: postgres.NewAppointmentRepository(db),
		services:     postgres.NewServiceRepository(db),
	}
}

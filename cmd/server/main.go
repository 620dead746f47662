package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/AnshRaj112/classroom-journal/internal/config"
	"github.com/AnshRaj112/classroom-journal/internal/database"
	"github.com/AnshRaj112/classroom-journal/internal/handlers"
	"github.com/AnshRaj112/classroom-journal/internal/logging"
	"github.com/AnshRaj112/classroom-journal/internal/middleware"
	"github.com/AnshRaj112/classroom-journal/internal/repository"
	"github.com/AnshRaj112/classroom-journal/internal/routes"
	"github.com/AnshRaj112/classroom-journal/internal/services"
)

const (
	connectTimeout  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.StoreDriver).Fatal("failed to open journal store")
	}
	defer closeStore()

	journals := services.NewJournalService(store, services.WithPublishOwnership(cfg.PublishRequiresOwner))

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(log, cfg.TrustProxy))
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	// Shared limiter when Redis is configured, otherwise per replica.
	if cfg.RedisURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		rdb, err := database.ConnectRedis(connectCtx, cfg.RedisURI)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("failed to connect to Redis")
		}
		defer rdb.Close()
		r.Use(middleware.NewRedisRateLimiter(rdb, cfg.TrustProxy).Middleware)
		log.Info("Redis rate limiting enabled")
	} else {
		limiter := middleware.NewIPRateLimiter(middleware.DefaultIPRate, middleware.DefaultIPBurst, cfg.TrustProxy)
		go limiter.Run(ctx)
		r.Use(limiter.Middleware)
		log.Info("In-process rate limiting enabled")
	}

	routes.SetupRoutes(r, handlers.NewJournalHandler(journals), cfg.JWTSecret)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":   cfg.Port,
			"env":    cfg.Environment,
			"driver": cfg.StoreDriver,
		}).Info("journal service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// openStore connects the configured backend and prepares its indexes or
// schema. The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (services.JournalStore, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StoreMongo:
		log.WithField("uri", database.MaskURI(cfg.MongoURI)).Info("Connecting to MongoDB...")
		m, err := database.ConnectMongo(connectCtx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewMongoJournalStore(m.DB.Collection(repository.JournalCollection))
		if err := store.EnsureIndexes(connectCtx); err != nil {
			log.WithError(err).Warn("failed to ensure MongoDB journal indexes")
		}
		return store, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := m.Disconnect(disconnectCtx); err != nil {
				log.WithError(err).Warn("MongoDB disconnect failed")
			}
		}, nil

	case config.StorePostgres:
		log.WithField("uri", database.MaskURI(cfg.PostgresURI)).Info("Connecting to PostgreSQL...")
		db, err := database.ConnectPostgres(connectCtx, cfg.PostgresURI)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresJournalStore(db)
		if err := store.InitSchema(connectCtx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	default:
		log.Warn("Using in-memory journal store; data is lost on restart")
		return repository.NewMemoryJournalStore(), func() {}, nil
	}
}

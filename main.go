package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidfeed/domain/repository"
	"vidfeed/infrastructure/cache"
	"vidfeed/infrastructure/clients/apify"
	"vidfeed/infrastructure/clients/media"
	"vidfeed/infrastructure/clients/uploadthing"
	"vidfeed/infrastructure/configuration"
	"vidfeed/infrastructure/logger"
	"vidfeed/infrastructure/persistence"
	"vidfeed/infrastructure/pubsub"
	"vidfeed/infrastructure/realtime"
	"vidfeed/infrastructure/servicebus"
	"vidfeed/infrastructure/storage"
	httpHandler "vidfeed/interfaces/http"
	"vidfeed/server"
	"vidfeed/usecase"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// download budget for one media fetch, eager or deferred
const mediaFetchTimeout = 5 * time.Minute

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// env files never override the process environment
	configuration.LoadEnvFromFile("config.env", ".env")
	configuration.Reload()
	cfg := configuration.C

	fileStorage := InitiateStorage(ctx, cfg.Storage)
	mediaClient := &http.Client{Timeout: mediaFetchTimeout}
	eagerFetcher := media.NewFetcher(mediaClient, cfg.Pipeline.EagerFetchMaxBytes, media.MobileAppHeaders())
	downloadFetcher := media.NewFetcher(mediaClient, cfg.Pipeline.UploadMaxBytes, media.MobileAppHeaders())

	actors := usecase.ActorConfig{
		TikTokActor:    cfg.Apify.TikTokActor,
		InstagramActor: cfg.Apify.InstagramActor,
		WaitTimeout:    time.Duration(cfg.Apify.WaitTimeoutSeconds) * time.Second,
	}
	// one scraping session per submission, torn down by the submission usecase
	newResolver := func() (usecase.IMetadataResolver, error) {
		runner, err := apify.NewClient(apify.Config{BaseURL: cfg.Apify.BaseURL, Token: cfg.Apify.Token})
		if err != nil {
			return nil, err
		}
		return usecase.NewMetadataResolver(runner, eagerFetcher, actors), nil
	}

	publisher := usecase.NewPublisher(fileStorage, downloadFetcher, usecase.NewFileNamer(nil), cfg.Pipeline.UploadMaxBytes)
	submissionUsecase := usecase.NewSubmissionUsecase(newResolver, publisher)
	healthChecks := map[string]func() error{}

	db, submissionLog, err := InitiateDatabase(cfg.Database)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Submission log not available - continuing without submission history")
	} else {
		defer db.Close()
		submissionUsecase.WithSubmissionLog(submissionLog)
		healthChecks["database"] = db.Ping
	}

	redisClient := InitiateRedis(ctx, cfg.RedisClient)
	if redisClient != nil {
		defer redisClient.Close()
		ttl := time.Duration(cfg.Pipeline.StatusTTLHours) * time.Hour
		submissionUsecase.WithStatusCache(cache.NewSubmissionStatusCache(redisClient, ttl))
		healthChecks["redis"] = func() error { return redisClient.Ping(context.Background()).Err() }
	}

	events, closeEvents := InitiateEvents(ctx, cfg)
	defer closeEvents()
	if events != nil {
		submissionUsecase.WithEventPublisher(events)
	}

	feedHub := realtime.NewFeedHub()
	submissionUsecase.WithBroadcaster(feedHub.BroadcastVideoPublished)

	catalogUsecase := usecase.NewCatalogUsecase(fileStorage, cfg.Storage.URLStrategy)

	router := server.InitiateRouter(
		httpHandler.NewSubmissionHandler(submissionUsecase),
		httpHandler.NewVideoHandler(catalogUsecase, feedHub.Serve),
		httpHandler.NewHealthHandler(healthChecks),
		cfg.App.AllowedOrigins,
	)

	app := cfg.App
	logger.GetLogger().WithFields(map[string]interface{}{
		"port":         app.Port,
		"tls":          app.TLSEnabled,
		"storage":      cfg.Storage.Provider,
		"url_strategy": cfg.Storage.URLStrategy,
		"events":       cfg.Events.Provider,
	}).Info("Starting application")
	g.Go(func() error {
		// WriteTimeout stays 0: submissions and the live feed hold the connection open
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", app.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			if app.TLSCertFile == "" || app.TLSKeyFile == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": app.TLSCertFile, "key": app.TLSKeyFile}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Graceful shutdown incomplete")
		}
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		closeEvents()
		os.Exit(2)
	}
}

// InitiateStorage builds the configured provider. A misconfigured provider is
// kept as an error source so the API still starts and reports it per request.
func InitiateStorage(ctx context.Context, cfg configuration.Storage) repository.IFileStorage {
	var (
		fileStorage repository.IFileStorage
		err         error
	)
	switch cfg.Provider {
	case configuration.ProviderS3:
		fileStorage, err = storage.NewS3Storage(ctx, storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
	default:
		fileStorage, err = uploadthing.NewClient(uploadthing.Config{
			Token:   cfg.UploadThing.Token,
			AppID:   cfg.UploadThing.AppID,
			BaseURL: cfg.UploadThing.BaseURL,
		})
	}
	if err != nil {
		logger.GetLogger().WithField("provider", cfg.Provider).WithField("error", err).Error("Storage provider not configured")
		return storage.Unavailable(err)
	}
	return fileStorage
}

// InitiateDatabase opens the submission log. DB_VENDOR selects mssql or postgres;
// an empty vendor with no host means the log is disabled.
func InitiateDatabase(cfg configuration.Database) (*sql.DB, repository.ISubmission, error) {
	switch cfg.Vendor {
	case "mssql":
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			return nil, nil, fmt.Errorf("connect mssql: %w", err)
		}
		if err := persistence.EnsureSubmissionSchemaMSSQL(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, persistence.NewSubmissionRepositoryMSSQL(db), nil
	case "", "postgres", "postgresql":
		if cfg.Psql.Host == "" {
			return nil, nil, errors.New("DB_HOST is not set")
		}
		db, err := persistence.NewPostgreSQLDB()
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := persistence.EnsureSubmissionSchema(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return db, persistence.NewSubmissionRepository(db), nil
	}
	return nil, nil, fmt.Errorf("unsupported DB_VENDOR %q", cfg.Vendor)
}

func InitiateRedis(ctx context.Context, cfg configuration.RedisClient) *redis.Client {
	if cfg.Host == "" {
		logger.GetLogger().Warn("REDIS_HOST not set - live submission status disabled")
		return nil
	}
	client, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		cfg.Username,
		cfg.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - live submission status disabled")
		return nil
	}
	logger.GetLogger().Info("Redis client initialized successfully.")
	return client
}

// InitiateEvents connects the configured bus. The returned func releases it and
// is safe to call more than once.
func InitiateEvents(ctx context.Context, cfg configuration.Config) (repository.IVideoEventPublisher, func()) {
	noop := func() {}
	switch cfg.Events.Provider {
	case configuration.EventsPubSub:
		client, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("PubSub not available - video events disabled")
			return nil, noop
		}
		publisher := pubsub.NewVideoEventPubSub(client, cfg.Pubsub.Topic)
		closed := false
		return publisher, func() {
			if closed {
				return
			}
			closed = true
			publisher.Stop()
			_ = client.Close()
		}
	case configuration.EventsServiceBus:
		client, err := servicebus.NewServiceBus(ctx, cfg.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - video events disabled")
			return nil, noop
		}
		closed := false
		return servicebus.NewVideoEventServiceBus(client, cfg.ServiceBus.Queue), func() {
			if closed {
				return
			}
			closed = true
			_ = client.Close(context.Background())
		}
	case "", "none":
		return nil, noop
	}
	logger.GetLogger().WithField("provider", cfg.Events.Provider).Warn("Unknown EVENTS_PROVIDER - video events disabled")
	return nil, noop
}

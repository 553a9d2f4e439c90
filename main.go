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

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/cache"
	youtubeclient "social-publisher/infrastructure/clients/youtube"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/notify"
	"social-publisher/infrastructure/persistence"
	"social-publisher/infrastructure/pubsub"
	"social-publisher/infrastructure/realtime"
	"social-publisher/infrastructure/servicebus"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/server"
	"social-publisher/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")
	if _, err := os.Stat("config.env"); err == nil {
		logger.GetLogger().Info("Detected config.env in working directory")
	} else {
		logger.GetLogger().Info("config.env not found in working directory")
	}
	if _, err := os.Stat(".env"); err == nil {
		logger.GetLogger().Info("Detected .env in working directory")
	} else {
		logger.GetLogger().Info(".env not found in working directory")
	}

	app := configuration.C.App

	tokenDb, tokenRepo, err := InitiateTokenStore()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Token store initialization failed")
	}
	if tokenDb != nil {
		defer tokenDb.Close()
	}

	jobDb, err := persistence.NewJobDb()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Job store initialization failed")
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without audit trail")
		mongoDb = nil
	} else {
		if err := mongoDb.Ping(ctx, nil); err != nil {
			logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without audit trail")
			mongoDb = nil
		} else {
			logger.GetLogger().Info("MongoDB connected successfully")
		}
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Google Pub/Sub not available - continuing without Pub/Sub forwarding")
		pubSubClient = nil
	}

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus forwarding")
		azServiceBusClient = nil
	}

	redisClient, _ := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	stateStore := cache.NewStateStore(redisClient)

	// Progress fan-out: SSE hub always, brokers when configured
	progressHub := realtime.NewProgressHub()
	progressSink := notify.NewProgressSink(progressHub)
	if pubSubClient != nil {
		progressSink = progressSink.WithPubSub(pubsub.NewProgressPubSub(pubSubClient))
	}
	if azServiceBusClient != nil {
		progressSink = progressSink.WithServiceBus(
			servicebus.NewProgressServiceBus(azServiceBusClient, configuration.C.ServiceBus.Queue),
		)
	}

	youtubeConfig, err := configuration.GetYouTubeConfig()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("YouTube configuration not found - publishing will be disabled")
	}

	var publishHandler httpHandler.IPublishHandler
	var publishUsecase usecase.IPublishUsecase
	if tokenRepo != nil && jobDb != nil && youtubeConfig != nil {
		tokenManager := youtubeclient.NewTokenManager(tokenRepo, youtubeConfig.ClientID, youtubeConfig.ClientSecret)
		uploader := youtubeclient.NewUploader(tokenManager)
		jobRepo := persistence.NewPublishJobRepository(jobDb)
		auditRepo := persistence.NewPublishAuditRepository(mongoDb)

		publishUsecase = usecase.NewPublishUsecase(tokenManager, uploader, jobRepo, progressSink).
			WithAudit(auditRepo)
		publishHandler = httpHandler.NewPublishHandler(publishUsecase)
	} else {
		logger.GetLogger().Info("Publish pipeline not fully configured - publish routes disabled")
	}

	var youtubeAuthHandler httpHandler.IYouTubeAuthHandler
	if tokenRepo != nil {
		youtubeAuthHandler, err = httpHandler.NewYouTubeAuthHandler(tokenRepo, stateStore)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Failed to initialize YouTube auth handler")
			youtubeAuthHandler = nil
		}
	}

	router := server.InitiateRouter(publishHandler, youtubeAuthHandler, progressHub)

	// Background publish job processor (simple ticker loop)
	if publishUsecase != nil {
		interval := time.Duration(configuration.C.Publish.ProcessIntervalSeconds) * time.Second
		batchSize := configuration.C.Publish.BatchSize
		g.Go(func() error {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					procCtx, cancelProc := context.WithTimeout(ctx, 15*time.Minute)
					if err := publishUsecase.ProcessPending(procCtx, batchSize); err != nil {
						logger.GetLogger().WithField("error", err).Warn("Pending publish job processing failed")
					}
					cancelProc()
				}
			}
		})
	}

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  0,
			WriteTimeout: 0,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
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
		_ = httpServer.Shutdown(shutdownCtx)
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateTokenStore opens the credential database and returns the matching
// token repository. Production and DB_VENDOR=mssql run against SQL Server;
// everything else uses PostgreSQL.
func InitiateTokenStore() (*sql.DB, repository.IOAuthToken, error) {
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" || env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL")
			return nil, nil, err
		}
		if err := persistence.EnsureOAuthTokenSchemaMSSQL(mssql); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring oauth token schema")
		}
		return mssql, persistence.NewOAuthTokenRepositoryMSSQL(mssql), nil
	}

	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, nil, err
	}
	return postgres, persistence.NewOAuthTokenRepository(postgres), nil
}

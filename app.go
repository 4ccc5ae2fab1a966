package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"

	"social-integration/domain/repository"
	"social-integration/infrastructure/cache"
	"social-integration/infrastructure/clients"
	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/logger"
	"social-integration/infrastructure/persistence"
	"social-integration/infrastructure/poller"
	"social-integration/infrastructure/pubsub"
	"social-integration/infrastructure/realtime"
	"social-integration/usecase"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

// app is the wired object graph shared by the commands.
type app struct {
	registry *clients.Registry
	tokens   usecase.ITokenManager
	factory  usecase.IIntegrationFactory
	publish  usecase.IPublishUsecase
	message  usecase.IMessageUsecase
	audit    repository.IPublishAudit
	hub      *realtime.Hub

	closers []func()
}

func (a *app) onClose(fn func()) { a.closers = append(a.closers, fn) }

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp connects the credential store (required) and the optional audit, job, and event backends.
// An optional backend that cannot be reached is logged and left out.
func buildApp(ctx context.Context, withHub bool) (*app, error) {
	cfg := configuration.C
	a := &app{}

	store, err := openCredentialStore(ctx, a, cfg.Database)
	if err != nil {
		a.Close()
		return nil, err
	}

	var sinks []repository.IOutcomeSink
	if a.audit = openAudit(ctx, a, cfg.Database.Mongo); a.audit != nil {
		sinks = append(sinks, a.audit)
	}
	if events := openEvents(ctx, a, cfg.Pubsub); events != nil {
		sinks = append(sinks, events)
	}
	if withHub {
		a.hub = realtime.NewPublishHub()
		sinks = append(sinks, a.hub)
	}

	jobs := openJobStore(ctx, a, cfg.RedisClient, cfg.Publish)
	var pollOpts []poller.Option
	if jobs != nil {
		pollOpts = append(pollOpts, poller.WithObserver(jobs))
	}
	poll := poller.New(cfg.Publish.PollInterval(), cfg.Publish.PollMaxAttempts, pollOpts...)

	a.registry = clients.NewRegistry(cfg.Platforms, poll, nil)
	a.tokens = usecase.NewTokenManager(store, a.registry.Refreshers, a.registry.System, cfg.Publish.RefreshSkew())
	a.factory = usecase.NewIntegrationFactory(a.registry.Builders, a.tokens, cfg.Publish.VerifyAfter())
	a.publish = usecase.NewPublishUsecase(a.factory, jobs, usecase.PublishOptions{
		Timeout:     cfg.Publish.Timeout(),
		FanOutLimit: cfg.Publish.FanOutLimit,
	}, sinks...)
	a.message = usecase.NewMessageUsecase(a.factory, cfg.Publish.Timeout())
	return a, nil
}

func openCredentialStore(ctx context.Context, a *app, db configuration.Database) (repository.ICredential, error) {
	log := logger.GetLogger().WithField("vendor", db.Vendor)
	switch db.Vendor {
	case "mssql":
		conn, err := persistence.NewMSSQLDB()
		if err != nil {
			return nil, fmt.Errorf("connect mssql: %w", err)
		}
		a.onClose(closeDB(conn))
		if err := persistence.EnsureCredentialSchemaMSSQL(ctx, conn); err != nil {
			return nil, fmt.Errorf("ensure credential schema: %w", err)
		}
		log.Info("Credential store ready")
		return persistence.NewCredentialRepositoryMSSQL(conn), nil
	case "mysql":
		conn, err := persistence.NewMySQLGorm()
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		a.onClose(closeGorm(conn))
		if err := persistence.EnsureCredentialSchemaGorm(conn.WithContext(ctx)); err != nil {
			return nil, fmt.Errorf("ensure credential schema: %w", err)
		}
		log.Info("Credential store ready")
		return persistence.NewCredentialRepositoryGorm(conn), nil
	case "", "postgres":
		conn, err := persistence.NewPostgreSQLDB()
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.onClose(closeDB(conn))
		if err := persistence.EnsureCredentialSchema(ctx, conn); err != nil {
			return nil, fmt.Errorf("ensure credential schema: %w", err)
		}
		log.Info("Credential store ready")
		return persistence.NewCredentialRepository(conn), nil
	default:
		return nil, fmt.Errorf("unknown database vendor %q", db.Vendor)
	}
}

func openAudit(ctx context.Context, a *app, cfg configuration.Db) repository.IPublishAudit {
	if cfg.Host == "" {
		logger.GetLogger().Info("MongoDB not configured - publish history disabled")
		return nil
	}
	client, err := persistence.NewMongoDb(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if err == nil {
		err = client.Ping(ctx, nil)
	}
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without publish history")
		if client != nil {
			_ = client.Disconnect(context.Background())
		}
		return nil
	}
	a.onClose(func() { disconnectMongo(client) })
	audit := persistence.NewPublishAuditRepository(client, cfg.Name)
	if ix, ok := audit.(*persistence.PublishAuditRepository); ok {
		if err := ix.EnsureIndexes(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Warn("failed ensuring publish audit indexes")
		}
	}
	logger.GetLogger().Info("MongoDB connected successfully")
	return audit
}

func openEvents(ctx context.Context, a *app, cfg configuration.Pubsub) repository.IOutcomeSink {
	if cfg.ProjectID == "" {
		return nil
	}
	client, err := pubsub.NewPubSub(ctx, cfg.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - outcome events disabled")
		return nil
	}
	a.onClose(func() { _ = client.Close() })
	events, err := pubsub.NewPublishEventPublisher(ctx, client, cfg.Topic)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub topic not available - outcome events disabled")
		return nil
	}
	if p, ok := events.(*pubsub.PublishEventPublisher); ok {
		a.onClose(p.Stop)
	}
	return events
}

func openJobStore(ctx context.Context, a *app, cfg configuration.RedisClient, publish configuration.Publish) repository.IPublishJob {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	client, err := cache.NewCache(ctx, addr, cfg.Username, cfg.Password, cfg.DB)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("addr", addr).Warn("Redis not available - job status lookups disabled")
		return nil
	}
	a.onClose(func() { _ = client.Close() })
	logger.GetLogger().Info("Redis client initialized successfully.")
	return cache.NewPublishJobCache(client, publish.JobTTL())
}

func closeDB(db *sql.DB) func() {
	return func() { _ = db.Close() }
}

func closeGorm(db *gorm.DB) func() {
	return func() {
		if conn, err := db.DB(); err == nil {
			_ = conn.Close()
		}
	}
}

func disconnectMongo(client *mongo.Client) {
	_ = client.Disconnect(context.Background())
}

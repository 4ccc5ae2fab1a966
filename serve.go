package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"social-integration/domain/model"
	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/logger"
	"social-integration/infrastructure/servicebus"
	httpHandler "social-integration/interfaces/http"
	"social-integration/server"
	"social-integration/usecase"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the publish command consumer",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	cfg := configuration.C
	router := server.InitiateRouter(server.RouterConfig{SecretKey: cfg.App.SecretKey}, server.Handlers{
		Publish:    httpHandler.NewPublishHandler(a.publish, a.audit),
		Message:    httpHandler.NewMessageHandler(a.message),
		Credential: httpHandler.NewCredentialHandler(a.tokens, a.factory),
		Facebook:   httpHandler.NewFacebookOAuthHandler(a.registry.FacebookAuth, a.tokens, a.factory),
		YouTube:    httpHandler.NewYouTubeOAuthHandler(a.registry.YouTubeAuth, a.tokens, a.factory),
		Stream:     a.hub.Serve,
	})

	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.GetLogger().WithField("port", cfg.App.Port).WithField("tls", cfg.App.TLSEnabled).Info("Starting application")
		var err error
		if cfg.App.TLSEnabled && cfg.App.TLSCertFile != "" && cfg.App.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.App.TLSCertFile, cfg.App.TLSKeyFile)
		} else {
			if cfg.App.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.GetLogger().Info("Application shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if consumer := newCommandConsumer(a, cfg.ServiceBus); consumer != nil {
		g.Go(func() error { return consumer.Run(ctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		return err
	}
	return nil
}

// newCommandConsumer returns nil when Service Bus is not configured or unreachable.
func newCommandConsumer(a *app, cfg configuration.ServiceBus) *servicebus.PublishCommandConsumer {
	if cfg.Namespace == "" {
		return nil
	}
	client, err := servicebus.NewServiceBus(cfg.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - queued publish commands disabled")
		return nil
	}
	a.onClose(func() { _ = client.Close(context.Background()) })
	consumer, err := servicebus.NewPublishCommandConsumer(client, cfg.Queue, publishCommandHandler(a))
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus receiver not available - queued publish commands disabled")
		return nil
	}
	return consumer
}

// publishCommandHandler fans a queued command out. Outcomes reach callers through the sinks, so a
// handled command is never redelivered even when some platforms failed.
func publishCommandHandler(a *app) servicebus.CommandHandler {
	return func(ctx context.Context, cmd *servicebus.PublishCommand) error {
		ctx = usecase.WithRequestID(ctx, cmd.RequestID)
		outcomes := a.publish.PublishToMany(ctx, cmd.Platforms, cmd.Identity, &cmd.Request)
		published := 0
		for _, o := range outcomes {
			if o.Outcome == model.OutcomePublished {
				published++
			}
		}
		logger.GetLogger().WithField("request_id", cmd.RequestID).WithField("identity", cmd.Identity).
			WithField("platforms", len(outcomes)).WithField("published", published).Info("publish command handled")
		return nil
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrapable/preview-service/internal/api"
	"github.com/scrapable/preview-service/internal/backend"
	"github.com/scrapable/preview-service/internal/config"
	"github.com/scrapable/preview-service/internal/credential"
	"github.com/scrapable/preview-service/internal/logging"
	"github.com/scrapable/preview-service/internal/notify"
	"github.com/scrapable/preview-service/internal/orchestrator"
	"github.com/scrapable/preview-service/internal/transport"
	"github.com/scrapable/preview-service/internal/transport/memory"
	"github.com/scrapable/preview-service/internal/transport/pubsub"
	redistransport "github.com/scrapable/preview-service/internal/transport/redis"
)

const shutdownGrace = 10 * time.Second

// newServeCmd creates the 'serve' subcommand, which runs the HTTP service.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the preview orchestration HTTP server",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New("previewd", cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds, err := buildCredentials(cfg)
	if err != nil {
		return err
	}

	channel, closeChannel, err := buildChannel(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeChannel()

	client := backend.New(backend.Config{
		BaseURL:     cfg.Backend.BaseURL,
		SyncTimeout: cfg.SyncTimeout(),
	}, logger)

	runners := func() api.PreviewRunner {
		return orchestrator.New(client, creds, channel,
			orchestrator.WithNotifier(notify.NewLogNotifier(logger)),
			orchestrator.WithLogger(logger),
		)
	}

	server := api.NewServer(runners, cfg, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("transport", cfg.Transport.Provider),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// buildCredentials prefers an inline token for local runs; production setups
// name an environment variable so rotations are picked up per request.
func buildCredentials(cfg config.Config) (credential.Provider, error) {
	if cfg.Backend.Token != "" {
		return credential.NewStatic(cfg.Backend.Token), nil
	}
	env, err := credential.NewEnv(cfg.Backend.TokenEnv)
	if err != nil {
		return nil, fmt.Errorf("init credentials: %w", err)
	}
	return env, nil
}

func buildChannel(ctx context.Context, cfg config.Config, logger *zap.Logger) (transport.Channel, func(), error) {
	switch cfg.Transport.Provider {
	case "memory":
		return memory.NewChannel(), func() {}, nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Transport.Redis.Addr,
			Password: cfg.Transport.Redis.Password,
			DB:       cfg.Transport.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Transport.Redis.Addr, err)
		}
		closer := func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis client", zap.Error(err))
			}
		}
		return redistransport.NewChannel(client, logger), closer, nil
	case "pubsub":
		channel, err := pubsub.NewChannel(ctx, cfg.Transport.PubSub.ProjectID, cfg.Transport.PubSub.SubscriptionID, logger)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if err := channel.Close(); err != nil {
				logger.Warn("close pubsub channel", zap.Error(err))
			}
		}
		return channel, closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport provider %q", cfg.Transport.Provider)
	}
}

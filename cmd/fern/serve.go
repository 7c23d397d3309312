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

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/database"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/events"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/kafka"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/routes/health"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/startup"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing"
	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/tracing/exporters"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *options) error {
	cfg, logger := opts.cfg, opts.logger
	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second

	exporter, err := exporters.New(ctx, exporters.Config{
		Protocol: cfg.TracingProtocol,
		Endpoint: cfg.TracingEndpoint,
		Insecure: cfg.TracingInsecure,
	})
	if err != nil {
		return fmt.Errorf("create span exporter: %w", err)
	}
	provider := tracing.Init(cfg.AppName, exporter)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = provider.Shutdown(shutdownCtx)
	}()

	policy, err := scoringPolicy(cfg)
	if err != nil {
		return fmt.Errorf("load scoring policy: %w", err)
	}

	checker := health.NewChecker(version)
	var (
		db       database.DB
		producer *kafka.Producer
		server   *echo.Echo
	)

	deps := startup.New(logger, cfg.StartupMaxAttempts)
	deps.Add(startup.Func{
		Name: "postgres",
		OnStart: func(ctx context.Context) error {
			conn, err := database.Connect(ctx, connectionConfig(cfg), logger)
			if err != nil {
				return err
			}
			db = conn
			checker.Add("postgres", db)
			return nil
		},
		OnStop: func(context.Context) error { return db.Close() },
	})
	deps.Add(startup.Func{
		Name:     "migrations",
		Requires: []string{"postgres"},
		OnStart: func(context.Context) error {
			if !cfg.DatabaseMigrateOnStart {
				return nil
			}
			return migrationService(opts).Migrate(db)
		},
	})
	if cfg.KafkaEnabled {
		deps.Add(startup.Func{
			Name: "kafka",
			OnStart: func(ctx context.Context) error {
				p := kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				if err := p.Ping(ctx); err != nil {
					_ = p.Close()
					return err
				}
				producer = p
				checker.Add("kafka", health.PingFunc(p.Ping))
				return nil
			},
			OnStop: func(context.Context) error { return producer.Close() },
		})
	}
	deps.Add(startup.Func{
		Name:     "http",
		Requires: []string{"migrations"},
		OnStart: func(context.Context) error {
			svc, err := newServices(cfg, logger, db, policy)
			if err != nil {
				return err
			}
			var emitter *events.Emitter
			if producer != nil {
				emitter = events.NewEmitter(producer, logger)
			}
			server = newEcho(cfg, logger, svc, emitter, checker)
			return nil
		},
		OnStop: func(ctx context.Context) error { return server.Shutdown(ctx) },
	})

	if err := deps.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithField("addr", addr).Info("HTTP server listening")
		checker.SetReady(true)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		checker.SetReady(false)
		logger.Info("Shutting down")

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return deps.Stop(stopCtx)
	})

	return g.Wait()
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/bovara-ml/internal/api"
	"github.com/irfndi/bovara-ml/internal/api/handlers"
	"github.com/irfndi/bovara-ml/internal/cache"
	"github.com/irfndi/bovara-ml/internal/database"
	"github.com/irfndi/bovara-ml/internal/logging"
	"github.com/irfndi/bovara-ml/internal/queue"
	"github.com/irfndi/bovara-ml/internal/services"
	"github.com/irfndi/bovara-ml/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Livestock clustering and forecasting engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newPredictCmd(), newRefreshCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var noConsumer bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the task consumers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), !noConsumer)
		},
	}
	cmd.Flags().BoolVar(&noConsumer, "no-consumer", false, "serve HTTP only, without consuming queued tasks")
	return cmd
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run one prediction and print the result as JSON",
	}
	cmd.AddCommand(
		newPredictKindCmd("cluster", "Assign a cluster label to one animal", func(ctx context.Context, a *app, ranchID, animalID uuid.UUID) (interface{}, error) {
			return a.cluster.Execute(ctx, ranchID, animalID)
		}),
		newPredictKindCmd("forecast", "Forecast sale, calving, dry-off and heat dates for one animal", func(ctx context.Context, a *app, ranchID, animalID uuid.UUID) (interface{}, error) {
			return a.forecast.Execute(ctx, ranchID, animalID)
		}),
	)
	return cmd
}

type predictFunc func(ctx context.Context, a *app, ranchID, animalID uuid.UUID) (interface{}, error)

func newPredictKindCmd(use, short string, predict predictFunc) *cobra.Command {
	var ranch, animal string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ranchID, err := parseID("ranch", ranch)
			if err != nil {
				return err
			}
			animalID, err := parseID("animal", animal)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := predict(cmd.Context(), a, ranchID, animalID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&ranch, "ranch", "", "ranch id")
	cmd.Flags().StringVar(&animal, "animal", "", "animal id")
	_ = cmd.MarkFlagRequired("ranch")
	_ = cmd.MarkFlagRequired("animal")
	return cmd
}

func newRefreshCmd() *cobra.Command {
	var ranch string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-cluster every active animal of a ranch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ranchID, err := parseID("ranch", ranch)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.refresher.Refresh(cmd.Context(), ranchID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&ranch, "ranch", "", "ranch id")
	_ = cmd.MarkFlagRequired("ranch")
	return cmd
}

// serve runs the HTTP server and, when enabled, the JetStream consumers until
// ctx is cancelled or one of them fails.
func serve(ctx context.Context, consume bool) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	redis, err := database.NewRedisConnection(ctx, a.cfg.Redis, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redis.Close()

	health := map[string]handlers.HealthChecker{
		"database": a.db,
		"redis":    redis,
	}

	g, gctx := errgroup.WithContext(ctx)

	if consume {
		client, err := queue.NewClient(a.cfg.NATS, a.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer client.Close()
		if err := client.EnsureStream(ctx); err != nil {
			return err
		}
		health["nats"] = client

		ledger := cache.NewRedisTaskLedger(redis.Client, a.cfg.Worker.ClaimTTL, a.cfg.Worker.DoneTTL)
		processor := services.NewProcessor(a.cluster, a.forecast, database.NewTaskStatusRepository(a.pool), ledger, a.metrics, a.logger)
		consumer := queue.NewConsumer(processor, client, a.cfg.NATS, a.cfg.Worker.TaskTimeout, a.logger)
		g.Go(func() error {
			return consumer.Run(gctx, client)
		})
	}

	router := api.NewRouter(api.Dependencies{
		Cluster:     a.cluster,
		Forecast:    a.forecast,
		Refresher:   a.refresher,
		Health:      health,
		Metrics:     a.metrics,
		AdminAPIKey: a.cfg.Server.AdminAPIKey,
		Timeout:     a.cfg.Server.RequestTimeout,
		Version:     telemetry.ServiceVersion,
		Logger:      a.logger,
	})

	// Create HTTP server with security timeouts
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      a.cfg.Server.RequestTimeout + 5*time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		logging.LogStartup(a.logger, serviceName, telemetry.ServiceVersion, a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.LogShutdown(a.logger, serviceName, "context cancelled")

		// Give outstanding requests a deadline for completion
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func parseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q: %w", name, value, err)
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

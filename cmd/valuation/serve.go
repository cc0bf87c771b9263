package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"company_valuation/pkg/api"
	apiConfig "company_valuation/pkg/api/config"
	"company_valuation/pkg/api/valuation"
	"company_valuation/pkg/core/pipeline"
	"company_valuation/pkg/core/store"
	"company_valuation/pkg/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	logger := logging.Named("server")

	var (
		valuations store.ValuationStore
		scenarios  store.ScenarioStore
		storage    = "memory"
	)
	if cfg.Database.URL != "" {
		pool, err := store.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		valuations = store.NewValuationRepo(pool)
		scenarios = store.NewScenarioRepo(pool)
		storage = "postgres"
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		mem := store.NewMemoryStore()
		valuations, scenarios = mem, mem
	}

	orch := pipeline.NewOrchestrator(valuations, scenarios, logging.Named("scenarios"))
	orch.SetTimeout(cfg.Scenario.JobTimeout)

	router := api.NewRouter(
		valuation.NewHandler(orch, valuations, scenarios, logging.Named("api")),
		apiConfig.NewHandler(storage),
		logging.Named("http"),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting", zap.String("addr", srv.Addr), zap.String("storage", storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	// Let in-flight scenario jobs persist before the pool closes
	orch.Wait()
	return nil
}

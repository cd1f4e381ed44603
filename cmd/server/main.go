// Command server re-scores stored transactions on a cron schedule and serves
// scores, health and metrics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wallet-risk-lab/internal/api"
	"wallet-risk-lab/internal/app"
	"wallet-risk-lab/internal/config"
	"wallet-risk-lab/internal/logger"
	"wallet-risk-lab/internal/observability"
	"wallet-risk-lab/internal/scheduler"
)

func main() {
	configPath := flag.String("config", os.Getenv("WRL_CONFIG"), "Path to yaml config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *configPath == "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("open stores", zap.Error(err))
	}
	defer stores.Close()

	orch, err := app.NewOrchestrator(cfg, stores, observability.DefaultMetrics, log)
	if err != nil {
		log.Fatal("build orchestrator", zap.Error(err))
	}

	sched := scheduler.New(func(ctx context.Context) error {
		res, err := orch.Run(ctx)
		if err != nil {
			return err
		}
		log.Info("scheduled scoring run ok",
			zap.String("run_id", res.Run.RunID),
			zap.String("strategy", res.Run.Strategy.String()),
			zap.Int("wallets", res.Run.WalletCount),
		)
		return nil
	}, log, ctx)

	if _, err := sched.Schedule(cfg.Server.Schedule); err != nil {
		log.Fatal("schedule scoring", zap.Error(err))
	}

	checks := make(map[string]api.ReadyCheck, len(stores.ReadyChecks))
	for name, check := range stores.ReadyChecks {
		checks[name] = check
	}

	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Options{
		ScoreStore:   stores.Scores,
		HistoryStore: stores.History,
		Trigger:      sched,
		ReadyChecks:  checks,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	sched.Start()
	if cfg.Server.RunOnStart {
		go func() {
			if err := sched.RunNow(ctx); err != nil && !errors.Is(err, scheduler.ErrRunInProgress) {
				log.Warn("startup scoring run failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	log.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("shutdown complete")
}

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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/coderoom/coderoom/internal/api"
	"github.com/coderoom/coderoom/internal/config"
	"github.com/coderoom/coderoom/internal/logging"
	"github.com/coderoom/coderoom/internal/metrics"
	"github.com/coderoom/coderoom/internal/room"
	"github.com/coderoom/coderoom/internal/runner"
	"github.com/coderoom/coderoom/internal/session"
	"github.com/coderoom/coderoom/internal/stats"
	"github.com/coderoom/coderoom/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML/JSON config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() // best-effort flush

	statsStore, err := stats.Open(cfg.StatsDBPath)
	if err != nil {
		logger.Fatal("open stats store", zap.Error(err))
	}
	defer statsStore.Close()

	m := metrics.New(nil)
	store := room.NewStore()
	engine := session.NewEngine(store)
	runnerClient := runner.NewClient(cfg.Runner.URL, cfg.Runner.Timeout)

	hub := ws.NewHub(engine, store, runnerClient, ws.Options{
		Logger:       logger,
		Metrics:      m,
		Stats:        statsStore,
		MessageRate:  cfg.MessageRate,
		MessageBurst: cfg.MessageBurst,
	})
	go hub.Run()

	apiHandler := api.New(hub, store, statsStore, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})
	mux.HandleFunc("/health", apiHandler.HealthHandler)
	mux.HandleFunc("/api/stats", apiHandler.StatsHandler)
	mux.HandleFunc("/api/rooms", apiHandler.RoomsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: corsMiddleware(mux),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("coderoom server starting",
		zap.String("addr", cfg.ListenAddress),
		zap.String("runner_url", cfg.Runner.URL))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("listen and serve", zap.Error(err))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

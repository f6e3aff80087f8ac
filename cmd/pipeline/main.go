// The pipeline command runs both consumer stages: ingress (events queue to
// store buffer) and state-update (buffered events to aggregate match state).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mobastats/match-pipeline/internal/broker"
	"github.com/mobastats/match-pipeline/internal/config"
	"github.com/mobastats/match-pipeline/internal/ingest"
	"github.com/mobastats/match-pipeline/internal/registry"
	"github.com/mobastats/match-pipeline/internal/state"
	"github.com/mobastats/match-pipeline/internal/store"
)

const (
	eventsQueue       = "game_events"
	stateUpdatesQueue = "game_state_updates"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Optional .env for local development.
	godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := store.NewRedis(cfg.StoreURL)
	if err != nil {
		sugar.Fatalw("Failed to connect to store", "error", err)
	}
	defer kv.Close()

	client, err := broker.Dial(cfg.BrokerURL)
	if err != nil {
		sugar.Fatalw("Failed to connect to broker", "error", err)
	}
	defer client.Close()

	events, err := client.Queue(eventsQueue)
	if err != nil {
		sugar.Fatalw("Failed to declare events queue", "error", err)
	}
	updates, err := client.Queue(stateUpdatesQueue)
	if err != nil {
		sugar.Fatalw("Failed to declare state-updates queue", "error", err)
	}

	keys := store.Keyspace{Events: cfg.EventsNamespace, State: cfg.StateNamespace}
	players := registry.New()

	env := &state.Env{
		Store:        kv,
		Keys:         keys,
		Registry:     players,
		Logger:       sugar,
		StreakWindow: cfg.KillStreakTimeWindow,
	}

	ingressConsumer := ingest.NewConsumer(events, updates, kv, keys, logger)
	stateConsumer := state.NewConsumer(updates, kv, keys, state.Processors(env), logger)

	opsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: opsRouter(kv, client),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ingressConsumer.Run(gctx) })
	g.Go(func() error { return stateConsumer.Run(gctx) })
	g.Go(func() error {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return opsServer.Shutdown(shutdownCtx)
	})

	sugar.Infow("Pipeline started",
		"eventsQueue", eventsQueue,
		"stateUpdatesQueue", stateUpdatesQueue,
		"metricsAddr", cfg.MetricsAddr,
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		sugar.Errorw("Pipeline stopped with error", "error", err)
		os.Exit(1)
	}
	sugar.Info("Pipeline stopped")
}

func opsRouter(kv *store.RedisStore, client *broker.Client) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		checks := map[string]bool{
			"store":  kv.Ping(req.Context()) == nil,
			"broker": !client.IsClosed(),
		}
		ready := true
		for _, ok := range checks {
			if !ok {
				ready = false
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ready":  ready,
			"checks": checks,
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

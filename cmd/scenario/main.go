// The scenario command publishes a directory of per-event JSON files to the
// events queue in sorted filename order, then polls the read path until the
// match state materializes and prints it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"github.com/mobastats/match-pipeline/internal/broker"
	"github.com/mobastats/match-pipeline/internal/config"
	"github.com/mobastats/match-pipeline/internal/state"
	"github.com/mobastats/match-pipeline/internal/store"
)

const eventsQueue = "game_events"

func main() {
	dir := flag.String("dir", "testdata/scenario1", "directory of event JSON files, published in sorted order")
	matchID := flag.String("match", "", "match ID to poll for after publishing (required)")
	timeout := flag.Duration("timeout", 20*time.Second, "how long to wait for the final state")
	flag.Parse()

	if *matchID == "" {
		log.Fatal("missing required -match flag")
	}

	godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	client, err := broker.Dial(cfg.BrokerURL)
	if err != nil {
		log.Fatalf("connect to broker: %v", err)
	}
	defer client.Close()

	queue, err := client.Queue(eventsQueue)
	if err != nil {
		log.Fatalf("declare events queue: %v", err)
	}

	if err := publishScenario(ctx, queue, *dir); err != nil {
		log.Fatalf("publish scenario: %v", err)
	}

	kv, err := store.NewRedis(cfg.StoreURL)
	if err != nil {
		log.Fatalf("connect to store: %v", err)
	}
	defer kv.Close()

	keys := store.Keyspace{Events: cfg.EventsNamespace, State: cfg.StateNamespace}
	reader := state.NewReader(kv, keys)

	game, err := awaitGameState(ctx, reader, *matchID, *timeout)
	if err != nil {
		log.Fatalf("read game state: %v", err)
	}

	out, err := json.MarshalIndent(game, "", "  ")
	if err != nil {
		log.Fatalf("encode game state: %v", err)
	}
	fmt.Println(string(out))
}

func publishScenario(ctx context.Context, queue *broker.Queue, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return fmt.Errorf("no event files in %s", dir)
	}

	for _, name := range files {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if err := queue.Publish(ctx, body); err != nil {
			return fmt.Errorf("publish %s: %w", name, err)
		}
		log.Printf("published %s", name)
	}
	return nil
}

// awaitGameState polls until the pipeline has materialized the match or the
// timeout elapses. Early reads can also fail while mid-pipeline events are
// still in flight; those errors only surface if the deadline passes.
func awaitGameState(ctx context.Context, reader *state.Reader, matchID string, timeout time.Duration) (any, error) {
	deadline := time.Now().Add(timeout)
	for {
		game, err := reader.GameState(ctx, matchID)
		if err == nil {
			return game, nil
		}
		if !errors.Is(err, state.ErrMatchNotFound) && time.Now().After(deadline) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for match %s: %w", matchID, err)
		}
		time.Sleep(time.Second)
	}
}

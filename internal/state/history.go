package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mobastats/match-pipeline/internal/store"
)

// Kill type tags recorded in a player's kill history.
const (
	killTypeMinion = "minion"
	killTypeHuman  = "human"
	killTypeDragon = "dragon"
)

// KillRecord is one kill-history entry. Records are sorted-set members scored
// by their timestamp, so range reads come back in chronological order
// regardless of ingestion order.
type KillRecord struct {
	Timestamp float64 `json:"timestamp"`
	KillType  string  `json:"kill_type"`
}

func appendKillHistory(ctx context.Context, s store.Store, key string, ts float64, killType string) error {
	member, err := json.Marshal(KillRecord{Timestamp: ts, KillType: killType})
	if err != nil {
		return err
	}
	return s.ZAdd(ctx, key, string(member), ts)
}

func readKillHistory(ctx context.Context, s store.Store, key string) ([]KillRecord, error) {
	members, err := s.ZRange(ctx, key)
	if err != nil {
		return nil, err
	}
	records := make([]KillRecord, 0, len(members))
	for _, m := range members {
		var rec KillRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			return nil, fmt.Errorf("decode kill history member %q: %w", m, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readDeathHistory(ctx context.Context, s store.Store, key string) ([]float64, error) {
	members, err := s.ZRange(ctx, key)
	if err != nil {
		return nil, err
	}
	deaths := make([]float64, 0, len(members))
	for _, m := range members {
		ts, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil, fmt.Errorf("decode death history member %q: %w", m, err)
		}
		deaths = append(deaths, ts)
	}
	return deaths, nil
}

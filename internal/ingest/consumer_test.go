package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/mobastats/match-pipeline/internal/store"
)

type fakeStore struct {
	hashes  map[string]map[string]string
	failSet bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{hashes: make(map[string]map[string]string)}
}

func (s *fakeStore) HSet(ctx context.Context, key string, fields map[string]any) error {
	if s.failSet {
		return errors.New("store unavailable")
	}
	h := make(map[string]string, len(fields))
	for field, value := range fields {
		h[field] = fmt.Sprintf("%v", value)
	}
	s.hashes[key] = h
	return nil
}

func (s *fakeStore) HGet(ctx context.Context, key, field string) (string, error) {
	return s.hashes[key][field], nil
}

func (s *fakeStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return s.hashes[key], nil
}

func (s *fakeStore) HIncrBy(ctx context.Context, key, field string, delta int64) error {
	return nil
}

func (s *fakeStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	return nil
}

func (s *fakeStore) ZRange(ctx context.Context, key string) ([]string, error) {
	return nil, nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }

type fakePublisher struct {
	published [][]byte
	fail      bool
}

func (p *fakePublisher) Publish(ctx context.Context, body []byte) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, body)
	return nil
}

type fakeDelivery struct {
	body    []byte
	acked   bool
	nacked  bool
	requeue bool
}

func (d *fakeDelivery) Body() []byte { return d.body }

func (d *fakeDelivery) Ack() error {
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(requeue bool) error {
	d.nacked = true
	d.requeue = requeue
	return nil
}

func newTestConsumer() (*Consumer, *fakeStore, *fakePublisher) {
	kv := newFakeStore()
	updates := &fakePublisher{}
	c := &Consumer{
		updates: updates,
		store:   kv,
		keys:    store.Keyspace{Events: "game_events", State: "game_state"},
		logger:  zap.NewNop().Sugar(),
	}
	return c, kv, updates
}

func TestConsumerBuffersAndDispatches(t *testing.T) {
	c, kv, updates := newTestConsumer()

	envelope := `{"matchID":"match-1","type":"MINION_KILL","timestamp":"2024-01-01T12:00:10Z",` +
		`"payload":{"playerID":"player_1","goldGranted":20}}`
	d := &fakeDelivery{body: []byte(envelope)}
	c.handle(context.Background(), d)

	if !d.acked || d.nacked {
		t.Fatalf("delivery not acked: %+v", d)
	}
	if len(updates.published) != 1 {
		t.Fatalf("published %d identifiers, want 1", len(updates.published))
	}

	eventID := string(updates.published[0])
	fields := kv.hashes["game_events:event:"+eventID]
	if fields == nil {
		t.Fatalf("no buffered hash for event %s", eventID)
	}
	if fields["matchID"] != "match-1" || fields["type"] != "MINION_KILL" {
		t.Errorf("scalar fields = %v", fields)
	}
	if fields["timestamp"] != "2024-01-01T12:00:10Z" {
		t.Errorf("timestamp = %q", fields["timestamp"])
	}

	// The inner payload must round-trip as a JSON string.
	var payload map[string]any
	if err := json.Unmarshal([]byte(fields["payload"]), &payload); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if payload["playerID"] != "player_1" || payload["goldGranted"] != float64(20) {
		t.Errorf("payload = %v", payload)
	}
}

func TestConsumerDropsMalformedJSON(t *testing.T) {
	c, kv, updates := newTestConsumer()

	d := &fakeDelivery{body: []byte("{not json")}
	c.handle(context.Background(), d)

	if !d.acked || d.nacked {
		t.Errorf("malformed message must be acked and dropped: %+v", d)
	}
	if len(kv.hashes) != 0 || len(updates.published) != 0 {
		t.Errorf("malformed message must leave no trace: hashes=%d published=%d",
			len(kv.hashes), len(updates.published))
	}
}

func TestConsumerRequeuesOnStoreFailure(t *testing.T) {
	c, kv, updates := newTestConsumer()
	kv.failSet = true

	d := &fakeDelivery{body: []byte(`{"matchID":"match-1","type":"MATCH_END"}`)}
	c.handle(context.Background(), d)

	if d.acked || !d.nacked || !d.requeue {
		t.Errorf("store failure must nack with requeue: %+v", d)
	}
	if len(updates.published) != 0 {
		t.Errorf("nothing may be published after a store failure")
	}
}

func TestConsumerRequeuesOnPublishFailure(t *testing.T) {
	c, _, updates := newTestConsumer()
	updates.fail = true

	d := &fakeDelivery{body: []byte(`{"matchID":"match-1","type":"MATCH_END"}`)}
	c.handle(context.Background(), d)

	if d.acked || !d.nacked || !d.requeue {
		t.Errorf("publish failure must nack with requeue: %+v", d)
	}
}

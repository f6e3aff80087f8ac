package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// memStore implements store.Store in memory for tests: hashes plus sorted
// sets ordered by (score, member) the way the real store ranges them.
type memStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
	zsets  map[string][]scoredMember

	// failOps, when set, makes the named operations return an error.
	failOps map[string]bool
}

type scoredMember struct {
	member string
	score  float64
}

func newMemStore() *memStore {
	return &memStore{
		hashes:  make(map[string]map[string]string),
		zsets:   make(map[string][]scoredMember),
		failOps: make(map[string]bool),
	}
}

func (m *memStore) fail(op string) error {
	if m.failOps[op] {
		return errors.New("store unavailable")
	}
	return nil
}

func (m *memStore) HSet(ctx context.Context, key string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("hset"); err != nil {
		return err
	}
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for field, value := range fields {
		h[field] = fmt.Sprintf("%v", value)
	}
	return nil
}

func (m *memStore) HGet(ctx context.Context, key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("hget"); err != nil {
		return "", err
	}
	return m.hashes[key][field], nil
}

func (m *memStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("hgetall"); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(m.hashes[key]))
	for field, value := range m.hashes[key] {
		out[field] = value
	}
	return out, nil
}

func (m *memStore) HIncrBy(ctx context.Context, key, field string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("hincrby"); err != nil {
		return err
	}
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	current, _ := strconv.ParseInt(h[field], 10, 64)
	h[field] = strconv.FormatInt(current+delta, 10)
	return nil
}

func (m *memStore) ZAdd(ctx context.Context, key, member string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("zadd"); err != nil {
		return err
	}
	for i, sm := range m.zsets[key] {
		if sm.member == member {
			m.zsets[key][i].score = score
			return nil
		}
	}
	m.zsets[key] = append(m.zsets[key], scoredMember{member: member, score: score})
	return nil
}

func (m *memStore) ZRange(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("zrange"); err != nil {
		return nil, err
	}
	members := append([]scoredMember(nil), m.zsets[key]...)
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].score != members[j].score {
			return members[i].score < members[j].score
		}
		return members[i].member < members[j].member
	})
	out := make([]string, 0, len(members))
	for _, sm := range members {
		out = append(out, sm.member)
	}
	return out, nil
}

func (m *memStore) Ping(ctx context.Context) error {
	return nil
}

// mockDelivery records acknowledgement outcomes for consumer tests.
type mockDelivery struct {
	body    []byte
	acked   bool
	nacked  bool
	requeue bool
}

func (d *mockDelivery) Body() []byte { return d.body }

func (d *mockDelivery) Ack() error {
	d.acked = true
	return nil
}

func (d *mockDelivery) Nack(requeue bool) error {
	d.nacked = true
	d.requeue = requeue
	return nil
}

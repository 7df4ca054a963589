package distcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one LWW-replicated value: the payload, the node that wrote it,
// and a logical clock used to order concurrent writes.
type Entry[V any] struct {
	Value    V      `json:"value"`
	WriterID string `json:"writerId"`
	Clock    uint64 `json:"clock"`
}

// wireEntry is Entry with the value left as raw JSON, the shape actually
// gossiped over the wire (see gossip.go) so the transport never needs to
// know V.
type wireEntry struct {
	Value    json.RawMessage `json:"value"`
	WriterID string          `json:"writerId"`
	Clock    uint64          `json:"clock"`
}

// Envelope is what one gossip push/pull carries: every entry this peer
// currently holds for one object kind.
type Envelope struct {
	Kind    string               `json:"kind"`
	Entries map[string]wireEntry `json:"entries"`
}

// Store is the cluster-replicated last-write-wins tier for one object
// kind. K is serialized to a string key the same way internal/localcache
// does, so gossip envelopes stay string-keyed regardless of the caller's
// id type.
type Store[K comparable, V any] struct {
	mu        sync.RWMutex
	entries   map[string]Entry[V]
	selfID    string
	clock     uint64
	kind      string
	peers     *PeerDirectory
	transport *GossipTransport
	readTTL   time.Duration
	writeTTL  time.Duration
	logger    *zap.Logger
}

// NewStore creates a replicated store for one kind. selfID is this
// process's node identity, used both as the writer tag on every local
// put and as this node's LWW tie-break rank.
func NewStore[K comparable, V any](kind, selfID string, peers *PeerDirectory, transport *GossipTransport, readTimeout, writeTimeout time.Duration, logger *zap.Logger) *Store[K, V] {
	return &Store[K, V]{
		entries:   make(map[string]Entry[V]),
		selfID:    selfID,
		kind:      kind,
		peers:     peers,
		transport: transport,
		readTTL:   readTimeout,
		writeTTL:  writeTimeout,
		logger:    logger,
	}
}

func dkey[K comparable](id K) string {
	return fmt.Sprint(id)
}

// Get reads the distributed tier: it first pulls the latest state from
// every reachable peer (merging any fresher entry in), then returns
// whatever is locally held after the merge. A peer that doesn't answer
// within readTimeout is skipped, not treated as an error: failure to
// reach any replica within the timeout results in the tier reporting the
// key absent, with a warning logged rather than an error returned.
func (s *Store[K, V]) Get(ctx context.Context, id K) (V, bool) {
	s.pullFromPeers(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[dkey(id)]
	if !ok {
		var zero V
		return zero, false
	}
	return e.Value, true
}

// Put applies a write locally under a fresh logical clock tick tagged
// with this node's identity, then best-effort pushes the new entry to
// every known peer. Peer push failures are logged, never returned: a
// successful return indicates the write was accepted locally and queued
// for replication, not that every replica has applied it.
func (s *Store[K, V]) Put(ctx context.Context, id K, v V) error {
	s.mu.Lock()
	s.clock++
	e := Entry[V]{Value: v, WriterID: s.selfID, Clock: s.clock}
	s.entries[dkey(id)] = e
	s.mu.Unlock()

	s.pushToPeers(ctx, dkey(id), e)
	return nil
}

// Delete removes id locally and best-effort propagates the removal by
// pushing a tombstone-free delete to peers; ChemistFlow's distributed
// tier carries no tombstones, so a concurrent put racing a delete on
// another peer simply resurfaces the value on the next gossip round,
// which is an accepted last-write-wins tradeoff.
func (s *Store[K, V]) Delete(ctx context.Context, id K) {
	s.mu.Lock()
	delete(s.entries, dkey(id))
	s.mu.Unlock()
	s.transport.PushDelete(ctx, s.kind, dkey(id), s.peers.All())
}

// merge applies an incoming entry using last-write-wins with a
// deterministic tie-break: higher clock wins; on an exact clock tie, the
// entry from the higher-Rank writer ID wins (see PeerDirectory.Rank,
// adapted from the teacher's ShardRegistry hashing).
func (s *Store[K, V]) merge(key string, incoming Entry[V]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.entries[key]
	if !exists || wins(incoming, current) {
		s.entries[key] = incoming
		return true
	}
	return false
}

func wins[V any](incoming, current Entry[V]) bool {
	if incoming.Clock != current.Clock {
		return incoming.Clock > current.Clock
	}
	return Rank(incoming.WriterID) > Rank(current.WriterID)
}

// Snapshot returns every entry this peer currently holds, used both for
// anti-entropy pushes and for tests.
func (s *Store[K, V]) Snapshot() map[string]Entry[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry[V], len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// ApplyEnvelope merges every entry in env into this store, used by the
// HTTP gossip receiver when another peer pushes its state.
func (s *Store[K, V]) ApplyEnvelope(env Envelope) (applied int, err error) {
	for key, we := range env.Entries {
		var v V
		if err := json.Unmarshal(we.Value, &v); err != nil {
			return applied, fmt.Errorf("distcache: decode gossiped value for %q: %w", key, err)
		}
		if s.merge(key, Entry[V]{Value: v, WriterID: we.WriterID, Clock: we.Clock}) {
			applied++
		}
	}
	return applied, nil
}

func (s *Store[K, V]) pushToPeers(ctx context.Context, key string, e Entry[V]) {
	raw, err := json.Marshal(e.Value)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("distcache: marshal value for gossip push", zap.Error(err))
		}
		return
	}
	env := Envelope{Kind: s.kind, Entries: map[string]wireEntry{
		key: {Value: raw, WriterID: e.WriterID, Clock: e.Clock},
	}}

	pushCtx, cancel := context.WithTimeout(ctx, s.writeTTL)
	defer cancel()
	for _, peer := range s.peers.All() {
		if err := s.transport.Push(pushCtx, peer, env); err != nil && s.logger != nil {
			s.logger.Warn("distcache: gossip push failed", zap.String("peer", peer.ID), zap.String("kind", s.kind), zap.Error(err))
		}
	}
}

// PushFullState sends this store's entire current snapshot to each peer
// in subset, used by the anti-entropy loop to reconcile a peer that
// missed a targeted push (it was unreachable, or it joined after the
// write already went out).
func (s *Store[K, V]) PushFullState(ctx context.Context, subset []PeerInfo) {
	env := s.ExportEnvelope()

	pushCtx, cancel := context.WithTimeout(ctx, s.writeTTL)
	defer cancel()
	for _, peer := range subset {
		if err := s.transport.Push(pushCtx, peer, env); err != nil && s.logger != nil {
			s.logger.Warn("distcache: anti-entropy push failed", zap.String("peer", peer.ID), zap.String("kind", s.kind), zap.Error(err))
		}
	}
}

// Kind returns the object kind this store replicates, identifying it in
// gossip URLs and in the Hub registry.
func (s *Store[K, V]) Kind() string {
	return s.kind
}

// ExportEnvelope builds the Envelope a peer should receive when it pulls
// this store's current state.
func (s *Store[K, V]) ExportEnvelope() Envelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make(map[string]wireEntry, len(s.entries))
	for key, e := range s.entries {
		raw, err := json.Marshal(e.Value)
		if err != nil {
			continue
		}
		entries[key] = wireEntry{Value: raw, WriterID: e.WriterID, Clock: e.Clock}
	}
	return Envelope{Kind: s.kind, Entries: entries}
}

// DeleteKey removes a single string-keyed entry, used by the gossip HTTP
// handler when a peer pushes a delete.
func (s *Store[K, V]) DeleteKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *Store[K, V]) pullFromPeers(ctx context.Context) {
	pullCtx, cancel := context.WithTimeout(ctx, s.readTTL)
	defer cancel()

	var wg sync.WaitGroup
	for _, peer := range s.peers.All() {
		wg.Add(1)
		go func(peer PeerInfo) {
			defer wg.Done()
			env, err := s.transport.Pull(pullCtx, peer, s.kind)
			if err != nil {
				if s.logger != nil {
					s.logger.Warn("distcache: gossip pull failed, reporting absent for unreachable peer", zap.String("peer", peer.ID), zap.String("kind", s.kind), zap.Error(err))
				}
				return
			}
			if _, err := s.ApplyEnvelope(env); err != nil && s.logger != nil {
				s.logger.Error("distcache: apply pulled envelope", zap.String("peer", peer.ID), zap.Error(err))
			}
		}(peer)
	}
	wg.Wait()
}

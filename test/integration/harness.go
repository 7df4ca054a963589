// Package integration exercises ChemistFlow end to end against fake
// Preprocessor/Engine upstreams (net/http/httptest), covering read-through,
// write-through, invalidation, compute fan-out, and cross-node cache
// fallback without touching any network outside the test process. Each
// test builds one or two full nodes — cache tiers, remote clients, HTTP
// surface — the same way cmd/chemistflow's buildApp does, but wired
// directly rather than through config.
package integration

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chemistflow/chemistflow/internal/cachefacade"
	"github.com/chemistflow/chemistflow/internal/distcache"
	"github.com/chemistflow/chemistflow/internal/domain"
	"github.com/chemistflow/chemistflow/internal/httpapi"
	"github.com/chemistflow/chemistflow/internal/localcache"
	"github.com/chemistflow/chemistflow/internal/mechanism"
	"github.com/chemistflow/chemistflow/internal/reaction"
	"github.com/chemistflow/chemistflow/internal/reaktoro"
	"github.com/chemistflow/chemistflow/internal/remote"
	"github.com/chemistflow/chemistflow/internal/storage"
)

// node bundles one ChemistFlow instance's full dependency graph plus the
// httptest.Server exposing both its API and its gossip routes.
type node struct {
	selfID string
	srv    *httptest.Server
	peers  *distcache.PeerDirectory
}

// addr returns the host:port distcache.GossipTransport needs for peer
// addressing (it builds "http://"+peer.Addr itself).
func (n *node) addr() string {
	return strings.TrimPrefix(n.srv.URL, "http://")
}

// nodeConfig bounds what a test needs to vary per node; callers fill only
// what their scenario cares about.
type nodeConfig struct {
	selfID          string
	preprocessorURL string
	engineURL       string
	localTTL        time.Duration
}

// newNode builds one full instance and starts serving it, mirroring
// cmd/chemistflow/serve.go's buildApp/wireCache wiring but with an
// in-memory local tier (storage.NewMemoryStore) instead of an LRU store,
// since bounded eviction is not under test here.
func newNode(t *testing.T, cfg nodeConfig) *node {
	t.Helper()
	logger := zap.NewNop()

	if cfg.localTTL == 0 {
		cfg.localTTL = time.Minute
	}

	peers := distcache.NewPeerDirectory()
	clusterClient := remote.New(remote.Config{
		ConnectTimeout: 2 * time.Second,
		RequestTimeout: 2 * time.Second,
		MaxConnections: 8,
		MaxIdleTime:    time.Minute,
	})
	transport := distcache.NewGossipTransport(clusterClient)
	hub := distcache.NewHub(peers, logger)

	reactionCache, reactionStore := wireCache[domain.ReactionID, domain.ReactionDetails](cfg.selfID, "reaction", cfg.localTTL, peers, transport, logger)
	mechanismCache, mechanismStore := wireCache[domain.MechanismID, domain.MechanismDetails](cfg.selfID, "mechanism", cfg.localTTL, peers, transport, logger)
	hub.Register(reactionStore)
	hub.Register(mechanismStore)

	preClient := remote.New(remote.Config{
		ConnectTimeout: 2 * time.Second,
		RequestTimeout: 2 * time.Second,
		MaxConnections: 8,
		MaxIdleTime:    time.Minute,
	})
	engineClient := remote.New(remote.Config{
		ConnectTimeout: 2 * time.Second,
		RequestTimeout: 2 * time.Second,
		MaxConnections: 8,
		MaxIdleTime:    time.Minute,
	})

	reactions := reaction.New(cfg.preprocessorURL+"/reaction", preClient, reactionCache, logger)
	mechanisms := mechanism.New(cfg.preprocessorURL+"/mechanism", preClient, mechanismCache, logger)
	compute := reaktoro.New(reactions, engineClient, cfg.engineURL+"/reaction", logger, nil)

	api := httpapi.New(reactions, mechanisms, compute, logger)
	mux := api.Mux()
	hub.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &node{selfID: cfg.selfID, srv: srv, peers: peers}
}

func wireCache[K comparable, V any](selfID, kind string, ttl time.Duration, peers *distcache.PeerDirectory, transport *distcache.GossipTransport, logger *zap.Logger) (*cachefacade.Service[K, V], *distcache.Store[K, V]) {
	local := localcache.New[K, V](storage.NewMemoryStore(), ttl)
	distributed := distcache.NewStore[K, V](kind, selfID, peers, transport, time.Second, time.Second, logger)
	facade := cachefacade.New[K, V](kind, local, distributed, logger, nil)
	return facade, distributed
}

// link registers each node as a gossip peer of the other, the way
// cluster.seedNodes bootstraps membership in production.
func link(a, b *node) {
	a.peers.Register(distcache.PeerInfo{ID: b.selfID, Addr: b.addr()})
	b.peers.Register(distcache.PeerInfo{ID: a.selfID, Addr: a.addr()})
}

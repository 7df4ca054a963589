package distcache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemistflow/chemistflow/internal/remote"
)

func TestPutThenGetLocal(t *testing.T) {
	s := NewStore[int, string]("widget", "node-a", NewPeerDirectory(), NewGossipTransport(remote.New(remote.DefaultConfig())), time.Second, time.Second, nil)

	require.NoError(t, s.Put(context.Background(), 1, "hello"))
	v, ok := s.Get(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestApplyEnvelopeHigherClockWins(t *testing.T) {
	s := NewStore[int, string]("widget", "node-a", NewPeerDirectory(), NewGossipTransport(remote.New(remote.DefaultConfig())), time.Second, time.Second, nil)
	require.NoError(t, s.Put(context.Background(), 1, "local")) // clock 1

	raw, _ := json.Marshal("remote-newer")
	env := Envelope{Kind: "widget", Entries: map[string]wireEntry{
		"1": {Value: raw, WriterID: "node-b", Clock: 99},
	}}
	applied, err := s.ApplyEnvelope(env)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	v, ok := s.Get(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "remote-newer", v)
}

func TestApplyEnvelopeLowerClockLoses(t *testing.T) {
	s := NewStore[int, string]("widget", "node-a", NewPeerDirectory(), NewGossipTransport(remote.New(remote.DefaultConfig())), time.Second, time.Second, nil)
	require.NoError(t, s.Put(context.Background(), 1, "local"))  // clock 1
	require.NoError(t, s.Put(context.Background(), 1, "local2")) // clock 2

	raw, _ := json.Marshal("stale")
	env := Envelope{Kind: "widget", Entries: map[string]wireEntry{
		"1": {Value: raw, WriterID: "node-b", Clock: 1},
	}}
	applied, err := s.ApplyEnvelope(env)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	v, ok := s.Get(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "local2", v)
}

func TestApplyEnvelopeTieBreaksByRank(t *testing.T) {
	s := NewStore[int, string]("widget", "node-a", NewPeerDirectory(), NewGossipTransport(remote.New(remote.DefaultConfig())), time.Second, time.Second, nil)
	require.NoError(t, s.Put(context.Background(), 1, "from-a")) // writerId node-a, clock 1

	higher, lower := "node-a", "zzz-other"
	if Rank("zzz-other") > Rank("node-a") {
		higher, lower = "zzz-other", "node-a"
	}
	_ = lower

	raw, _ := json.Marshal("from-contender")
	env := Envelope{Kind: "widget", Entries: map[string]wireEntry{
		"1": {Value: raw, WriterID: higher, Clock: 1},
	}}
	applied, _ := s.ApplyEnvelope(env)

	v, _ := s.Get(context.Background(), 1)
	if higher != "node-a" {
		assert.Equal(t, 1, applied)
		assert.Equal(t, "from-contender", v)
	} else {
		assert.Equal(t, 0, applied)
		assert.Equal(t, "from-a", v)
	}
}

// newGossipPeer spins up an httptest server fronting a Hub with a single
// registered store, and returns its PeerInfo (host:port, no scheme).
func newGossipPeer(t *testing.T, store Receiver) (*httptest.Server, PeerInfo) {
	mux := http.NewServeMux()
	hub := NewHub(NewPeerDirectory(), nil)
	hub.Register(store)
	hub.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	addr := strings.TrimPrefix(srv.URL, "http://")
	return srv, PeerInfo{ID: "peer", Addr: addr}
}

func TestPutReplicatesToPeerOverGossip(t *testing.T) {
	transport := NewGossipTransport(remote.New(remote.DefaultConfig()))

	dirB := NewPeerDirectory()
	storeB := NewStore[int, string]("widget", "node-b", dirB, transport, time.Second, time.Second, nil)
	_, peerB := newGossipPeer(t, storeB)

	dirA := NewPeerDirectory()
	dirA.Register(peerB)
	storeA := NewStore[int, string]("widget", "node-a", dirA, transport, time.Second, time.Second, nil)

	require.NoError(t, storeA.Put(context.Background(), 1, "replicated"))

	time.Sleep(20 * time.Millisecond)
	v, ok := storeB.Get(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, "replicated", v)
}

func TestGetPullsFromPeerWhenLocallyAbsent(t *testing.T) {
	transport := NewGossipTransport(remote.New(remote.DefaultConfig()))

	storeB := NewStore[int, string]("widget", "node-b", NewPeerDirectory(), transport, time.Second, time.Second, nil)
	require.NoError(t, storeB.Put(context.Background(), 7, "seen-on-b"))
	_, peerB := newGossipPeer(t, storeB)

	dirA := NewPeerDirectory()
	dirA.Register(peerB)
	storeA := NewStore[int, string]("widget", "node-a", dirA, transport, time.Second, time.Second, nil)

	v, ok := storeA.Get(context.Background(), 7)
	require.True(t, ok)
	assert.Equal(t, "seen-on-b", v)
}

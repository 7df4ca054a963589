package distcache

import (
	"context"
	"fmt"

	"github.com/chemistflow/chemistflow/internal/remote"
)

// GossipTransport carries Envelopes between peers over HTTP, generalized
// from the teacher's cluster.PostJSON/GetJSON helpers (a single shared
// client and ad-hoc URL building) into a typed push/pull pair addressed
// by kind, since ChemistFlow gossips several independently-replicated
// kinds rather than one broadcast path.
type GossipTransport struct {
	client *remote.Client
}

// NewGossipTransport builds a transport over an already-configured
// remote.Client carrying the cluster upstream's pool/timeout settings.
func NewGossipTransport(client *remote.Client) *GossipTransport {
	return &GossipTransport{client: client}
}

// Register announces self to peer's /cluster/register endpoint, so a
// node learns about a new peer the same way it learns about the peers
// it was seeded with.
func (t *GossipTransport) Register(ctx context.Context, peer PeerInfo, self PeerInfo) error {
	url := fmt.Sprintf("http://%s/cluster/register", peer.Addr)
	status, err := t.client.PostJSON(ctx, url, registerPeerRequest{Peer: self}, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("distcache: register with %s returned status %d", peer.ID, status)
	}
	return nil
}

// Push sends env to peer's /cluster/gossip/{kind} endpoint.
func (t *GossipTransport) Push(ctx context.Context, peer PeerInfo, env Envelope) error {
	url := fmt.Sprintf("http://%s/cluster/gossip/%s", peer.Addr, env.Kind)
	status, err := t.client.PostJSON(ctx, url, env, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("distcache: gossip push to %s returned status %d", peer.ID, status)
	}
	return nil
}

// Pull fetches peer's current snapshot for kind.
func (t *GossipTransport) Pull(ctx context.Context, peer PeerInfo, kind string) (Envelope, error) {
	url := fmt.Sprintf("http://%s/cluster/gossip/%s", peer.Addr, kind)
	var env Envelope
	status, err := t.client.GetJSON(ctx, url, &env)
	if err != nil {
		return Envelope{}, err
	}
	if status >= 300 {
		return Envelope{}, fmt.Errorf("distcache: gossip pull from %s returned status %d", peer.ID, status)
	}
	return env, nil
}

// PushDelete tells every peer to drop a single key for kind.
func (t *GossipTransport) PushDelete(ctx context.Context, kind, key string, peers []PeerInfo) {
	for _, peer := range peers {
		url := fmt.Sprintf("http://%s/cluster/gossip/%s/%s", peer.Addr, kind, key)
		_, _ = t.client.DeleteJSON(ctx, url, nil)
	}
}

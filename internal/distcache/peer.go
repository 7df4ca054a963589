// Package distcache implements ChemistFlow's distributed cache tier: a
// cluster-replicated, last-write-wins map per cached object kind,
// gossiped between peers with no partitioning — every peer holds a full
// replica of every kind.
//
// Peer membership bookkeeping is adapted from the teacher's
// cmd/coordinator registration/listing logic (register, dedupe-by-ID,
// list) generalized from "storage nodes behind a coordinator" to
// "symmetric gossip peers" — there is no coordinator role in ChemistFlow,
// every instance runs the same PeerDirectory.
package distcache

import (
	"hash/fnv"
	"sync"

	"golang.org/x/exp/slices"
)

// PeerInfo identifies one ChemistFlow instance reachable for gossip.
type PeerInfo struct {
	ID   string `json:"id"`
	Addr string `json:"addr"`
}

// PeerDirectory tracks the set of known peers and provides a
// deterministic total order over peer IDs, used to break last-write-wins
// ties when two puts for the same id land with equal logical clocks: the
// write tagged with the higher-ranked writer ID wins, so every peer
// converges on the same value without coordination.
//
// The ranking function reuses the teacher's ShardRegistry.GetShardForKey
// FNV-1a hashing technique, repurposed from "key -> shard index" into
// "peer id -> deterministic rank" — there is no shard space here, only a
// total order over node identities. Membership itself is kept as a plain
// slice with lookup via slices.IndexFunc, carried over unchanged from
// cmd/coordinator's handleRegister dedupe-by-ID logic.
type PeerDirectory struct {
	mu    sync.RWMutex
	peers []PeerInfo
}

// NewPeerDirectory creates an empty directory.
func NewPeerDirectory() *PeerDirectory {
	return &PeerDirectory{}
}

// Register adds or updates a peer's address. Returns true if this is a
// newly-seen peer.
func (d *PeerDirectory) Register(p PeerInfo) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := slices.IndexFunc(d.peers, func(existing PeerInfo) bool { return existing.ID == p.ID })
	if idx >= 0 {
		d.peers[idx] = p
		return false
	}
	d.peers = append(d.peers, p)
	return true
}

// Remove drops a peer from the directory. The health monitor never calls
// it: an unhealthy peer stays in the directory.
func (d *PeerDirectory) Remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := slices.IndexFunc(d.peers, func(existing PeerInfo) bool { return existing.ID == id })
	if idx < 0 {
		return
	}
	d.peers = append(d.peers[:idx], d.peers[idx+1:]...)
}

// All returns a snapshot of every known peer.
func (d *PeerDirectory) All() []PeerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]PeerInfo, len(d.peers))
	copy(out, d.peers)
	return out
}

// Rank returns a deterministic ordering value for a peer/node id, used to
// break last-write-wins ties: the entry written by the higher-ranked
// writer ID wins. Pure computation, no shared state.
func Rank(nodeID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(nodeID))
	return h.Sum32()
}

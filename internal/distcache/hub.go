package distcache

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Receiver is the non-generic face every Store[K,V] presents to the
// gossip HTTP handlers, which don't know or care about K/V.
type Receiver interface {
	Kind() string
	ApplyEnvelope(Envelope) (int, error)
	ExportEnvelope() Envelope
	DeleteKey(key string)
}

// Hub is the process-wide registry of replicated stores, one per object
// kind, and the HTTP surface peers gossip against. Adapted from the
// teacher's pattern of a single coordinator server multiplexing several
// node-facing endpoints off one mux.
type Hub struct {
	receivers map[string]Receiver
	peers     *PeerDirectory
	logger    *zap.Logger
}

// NewHub creates an empty registry. peers is the directory newly
// announced peers are added to via the /cluster/register endpoint; pass
// nil to run a hub whose registration endpoint answers 501 Not
// Implemented (tests that only exercise gossip push/pull).
func NewHub(peers *PeerDirectory, logger *zap.Logger) *Hub {
	return &Hub{receivers: make(map[string]Receiver), peers: peers, logger: logger}
}

// Register adds a store to the hub under its own Kind().
func (h *Hub) Register(r Receiver) {
	h.receivers[r.Kind()] = r
}

// RegisterRoutes wires the gossip endpoints onto mux:
//
//	POST   /cluster/register            announce a new or rejoining peer
//	POST   /cluster/gossip/{kind}       push an envelope into this peer
//	GET    /cluster/gossip/{kind}       pull this peer's current snapshot
//	DELETE /cluster/gossip/{kind}/{key} drop a single key
func (h *Hub) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /cluster/register", h.handleRegisterPeer)
	mux.HandleFunc("POST /cluster/gossip/{kind}", h.handlePush)
	mux.HandleFunc("GET /cluster/gossip/{kind}", h.handlePull)
	mux.HandleFunc("DELETE /cluster/gossip/{kind}/{key}", h.handleDelete)
}

// registerPeerRequest is the body a node POSTs to announce itself to a
// peer it doesn't yet have a relationship with, mirroring the teacher's
// cluster.RegisterRequest shape.
type registerPeerRequest struct {
	Peer PeerInfo `json:"peer"`
}

func (h *Hub) handleRegisterPeer(w http.ResponseWriter, r *http.Request) {
	if h.peers == nil {
		http.Error(w, "peer registration not supported", http.StatusNotImplemented)
		return
	}

	var req registerPeerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Peer.ID == "" || req.Peer.Addr == "" {
		http.Error(w, "missing id/addr", http.StatusBadRequest)
		return
	}

	isNew := h.peers.Register(req.Peer)
	if h.logger != nil && isNew {
		h.logger.Info("distcache: peer registered", zap.String("peer", req.Peer.ID), zap.String("addr", req.Peer.Addr))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Hub) handlePush(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	recv, ok := h.receivers[kind]
	if !ok {
		http.Error(w, "unknown kind", http.StatusNotFound)
		return
	}

	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		http.Error(w, "bad envelope", http.StatusBadRequest)
		return
	}

	applied, err := recv.ApplyEnvelope(env)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("distcache: apply pushed envelope failed", zap.String("kind", kind), zap.Error(err))
		}
		http.Error(w, "apply failed", http.StatusBadRequest)
		return
	}
	if h.logger != nil {
		h.logger.Debug("distcache: gossip push applied", zap.String("kind", kind), zap.Int("applied", applied))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Hub) handlePull(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	recv, ok := h.receivers[kind]
	if !ok {
		http.Error(w, "unknown kind", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recv.ExportEnvelope())
}

func (h *Hub) handleDelete(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	key := r.PathValue("key")
	recv, ok := h.receivers[kind]
	if !ok {
		http.Error(w, "unknown kind", http.StatusNotFound)
		return
	}
	recv.DeleteKey(key)
	w.WriteHeader(http.StatusNoContent)
}

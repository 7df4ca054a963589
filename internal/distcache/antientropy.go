package distcache

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// fullStatePusher is the non-generic face a Store[K,V] presents to
// AntiEntropy, which holds one of these per cached kind and doesn't know
// or care about K/V.
type fullStatePusher interface {
	Kind() string
	PushFullState(ctx context.Context, subset []PeerInfo)
}

// AntiEntropy periodically pushes every registered store's full snapshot
// to a random subset of known peers, on the same ticker idiom as
// HealthMonitor. This catches writes a targeted gossip push missed: a
// peer that was briefly unreachable, or one that joined the mesh after
// the original push already went out.
type AntiEntropy struct {
	peers    *PeerDirectory
	interval time.Duration
	subset   int
	logger   *zap.Logger

	mu     sync.Mutex
	stores []fullStatePusher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAntiEntropy creates a loop that sweeps every interval, pushing to up
// to subsetSize random peers per round per store.
func NewAntiEntropy(peers *PeerDirectory, interval time.Duration, subsetSize int, logger *zap.Logger) *AntiEntropy {
	ctx, cancel := context.WithCancel(context.Background())
	return &AntiEntropy{peers: peers, interval: interval, subset: subsetSize, logger: logger, ctx: ctx, cancel: cancel}
}

// Register adds a store to the set swept every round.
func (a *AntiEntropy) Register(s fullStatePusher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stores = append(a.stores, s)
}

// Start runs the periodic sweep in a background goroutine until ctx or
// the loop's own context is canceled.
func (a *AntiEntropy) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.sweep(ctx)
			case <-ctx.Done():
				return
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (a *AntiEntropy) Stop() {
	a.cancel()
	a.wg.Wait()
}

func (a *AntiEntropy) sweep(ctx context.Context) {
	all := a.peers.All()
	if len(all) == 0 {
		return
	}
	subset := randomSubset(all, a.subset)

	a.mu.Lock()
	stores := make([]fullStatePusher, len(a.stores))
	copy(stores, a.stores)
	a.mu.Unlock()

	for _, s := range stores {
		s.PushFullState(ctx, subset)
	}
	if a.logger != nil {
		a.logger.Debug("distcache: anti-entropy sweep complete", zap.Int("peers", len(subset)), zap.Int("stores", len(stores)))
	}
}

func randomSubset(peers []PeerInfo, n int) []PeerInfo {
	if n >= len(peers) {
		out := make([]PeerInfo, len(peers))
		copy(out, peers)
		return out
	}
	shuffled := make([]PeerInfo, len(peers))
	copy(shuffled, peers)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:n]
}

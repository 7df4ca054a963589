package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chemistflow/chemistflow/internal/cachefacade"
	"github.com/chemistflow/chemistflow/internal/config"
	"github.com/chemistflow/chemistflow/internal/distcache"
	"github.com/chemistflow/chemistflow/internal/domain"
	"github.com/chemistflow/chemistflow/internal/httpapi"
	"github.com/chemistflow/chemistflow/internal/localcache"
	"github.com/chemistflow/chemistflow/internal/logging"
	"github.com/chemistflow/chemistflow/internal/mechanism"
	"github.com/chemistflow/chemistflow/internal/metrics"
	"github.com/chemistflow/chemistflow/internal/reaction"
	"github.com/chemistflow/chemistflow/internal/reaktoro"
	"github.com/chemistflow/chemistflow/internal/remote"
	"github.com/chemistflow/chemistflow/internal/storage"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ChemistFlow HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (optional; CHEMISTFLOW_* env vars always apply on top)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("bootstrap: load config: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON})
	if err != nil {
		return fmt.Errorf("bootstrap: build logger: %w", err)
	}
	defer logger.Sync()

	reg, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("bootstrap: register metrics: %w", err)
	}

	app, err := buildApp(cfg, reg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTP.Host, fmt.Sprint(cfg.HTTP.Port)),
		Handler:           app.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("chemistflow listening", zap.String("addr", httpSrv.Addr), zap.String("nodeId", app.selfID))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	healthCtx, stopHealth := context.WithCancel(context.Background())
	go app.health.Start(healthCtx, app.peers.All)

	antiEntropyCtx, stopAntiEntropy := context.WithCancel(context.Background())
	app.antiEntropy.Start(antiEntropyCtx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		stopHealth()
		stopAntiEntropy()
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-stop:
		logger.Info("chemistflow shutting down")
		stopHealth()
		app.health.Stop()
		stopAntiEntropy()
		app.antiEntropy.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Warn("chemistflow: shutdown did not drain cleanly", zap.Error(err))
		}
	}

	logger.Info("chemistflow stopped")
	return nil
}

// application bundles everything serve needs to run and shut down.
type application struct {
	mux         http.Handler
	health      *distcache.HealthMonitor
	antiEntropy *distcache.AntiEntropy
	peers       *distcache.PeerDirectory
	selfID      string
}

// buildApp wires config into the full dependency graph: local caches,
// the gossip mesh, the Preprocessor/Engine clients, the domain services,
// and the HTTP surface. Mirrors the teacher's coordinator/node main()
// shape of "construct resources, then serve" but collapsed into one
// process since ChemistFlow's cluster is a symmetric gossip mesh rather
// than a coordinator/worker split (see DESIGN.md).
func buildApp(cfg config.Config, reg *metrics.Registry, logger *zap.Logger) (*application, error) {
	selfID := uuid.New().String()
	selfAddr := net.JoinHostPort(cfg.Cluster.Hostname, fmt.Sprint(cfg.Cluster.Port))

	peers := distcache.NewPeerDirectory()
	for _, seed := range cfg.Cluster.SeedNodes {
		peers.Register(distcache.PeerInfo{ID: seed, Addr: seed})
	}

	clusterClient := remote.New(remote.Config{
		ConnectTimeout: 2 * time.Second,
		RequestTimeout: 5 * time.Second,
		MaxConnections: 32,
		MaxIdleTime:    90 * time.Second,
	})
	transport := distcache.NewGossipTransport(clusterClient)
	hub := distcache.NewHub(peers, logger)

	reactionCache, reactionStore := wireCache[domain.ReactionID, domain.ReactionDetails]("reaction", selfID, cfg, peers, transport, reg, logger)
	mechanismCache, mechanismStore := wireCache[domain.MechanismID, domain.MechanismDetails]("mechanism", selfID, cfg, peers, transport, reg, logger)
	hub.Register(reactionStore)
	hub.Register(mechanismStore)

	preprocessorClient := remote.New(remote.Config{
		ConnectTimeout: cfg.PreprocessorClient.Timeout.Connect,
		RequestTimeout: cfg.PreprocessorClient.Timeout.Request,
		MaxConnections: cfg.PreprocessorClient.Pool.MaxConnections,
		MaxIdleTime:    cfg.PreprocessorClient.Pool.MaxIdleTime,
		Retries:        cfg.PreprocessorClient.Retries,
		Name:           "preprocessor",
		Observe:        reg.ObserveUpstreamCall,
	})
	engineClient := remote.New(remote.Config{
		ConnectTimeout: cfg.EngineClient.Timeout.Connect,
		RequestTimeout: cfg.EngineClient.Timeout.Request,
		MaxConnections: cfg.EngineClient.Pool.MaxConnections,
		MaxIdleTime:    cfg.EngineClient.Pool.MaxIdleTime,
		Retries:        cfg.EngineClient.Retries,
		Name:           "engine",
		Observe:        reg.ObserveUpstreamCall,
	})

	reactions := reaction.New(cfg.PreprocessorClient.BaseURI+"/reaction", preprocessorClient, reactionCache, logger)
	mechanisms := mechanism.New(cfg.PreprocessorClient.BaseURI+"/mechanism", preprocessorClient, mechanismCache, logger)
	compute := reaktoro.New(reactions, engineClient, cfg.EngineClient.BaseURI+"/reaction", logger, reg.FanOutSize)

	api := httpapi.New(reactions, mechanisms, compute, logger)
	mux := api.Mux()
	hub.RegisterRoutes(mux)

	health := distcache.NewHealthMonitor(10*time.Second, logger)
	health.SetOnUnhealthy(func(peerID string) {
		if reg.PeerHealthy != nil {
			reg.PeerHealthy.WithLabelValues(peerID).Set(0)
		}
	})

	antiEntropy := distcache.NewAntiEntropy(peers, 30*time.Second, 2, logger)
	antiEntropy.Register(reactionStore)
	antiEntropy.Register(mechanismStore)

	self := distcache.PeerInfo{ID: selfID, Addr: selfAddr}
	for _, seed := range peers.All() {
		if err := transport.Register(context.Background(), seed, self); err != nil {
			logger.Warn("chemistflow: could not announce self to seed node", zap.String("seed", seed.ID), zap.Error(err))
		}
	}

	return &application{mux: mux, health: health, antiEntropy: antiEntropy, peers: peers, selfID: selfID}, nil
}

// wireCache builds one object kind's full local+distributed+facade cache
// stack, returning both the facade services consume and the raw
// distcache.Store registered with the gossip hub.
func wireCache[K comparable, V any](kind, selfID string, cfg config.Config, peers *distcache.PeerDirectory, transport *distcache.GossipTransport, reg *metrics.Registry, logger *zap.Logger) (*cachefacade.Service[K, V], *distcache.Store[K, V]) {
	lruStore, err := storage.NewLRUStore(cfg.Cache.LocalMaxEntries)
	if err != nil {
		// NewLRUStore only fails on a non-positive size; Default() never
		// produces one, so this only happens when the config file sets
		// cache.localMaxEntries to zero or less: a configuration bug, not
		// a runtime condition worth plumbing an error return for here.
		panic(fmt.Sprintf("chemistflow: invalid cache.localMaxEntries for %s: %v", kind, err))
	}
	local := localcache.New[K, V](lruStore, cfg.Cache.LocalTTL)

	distributed := distcache.NewStore[K, V](kind, selfID, peers, transport, cfg.Cache.DistributedReadTimeout, cfg.Cache.DistributedWriteTimeout, logger)

	facade := cachefacade.New[K, V](kind, local, distributed, logger, reg.Cache)
	return facade, distributed
}

// Package httpapi is ChemistFlow's inbound HTTP surface: the
// `/api/reaction`, `/api/mechanism`, and `/api/system/properties` routes,
// plus ambient `/health` and Prometheus `/metrics` routes.
//
// Routing follows the same net/http.ServeMux method+pattern style already
// used by internal/distcache.Hub, which in turn follows the teacher's
// single-mux-multiplexing-several-endpoints shape from
// cmd/coordinator/main.go — a `server` struct with one handler method per
// route, wired by a constructor that returns the mux.
package httpapi

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chemistflow/chemistflow/internal/domain"
	"github.com/chemistflow/chemistflow/internal/reaktoro"
)

// ReactionService is the subset of reaction.Service the HTTP surface needs.
type ReactionService interface {
	Get(ctx context.Context, id domain.ReactionID) (domain.ReactionDetails, error)
	Create(ctx context.Context, body domain.Reaction) (domain.Reaction, error)
	Delete(ctx context.Context, id domain.ReactionID) error
}

// MechanismService is the subset of mechanism.Service the HTTP surface needs.
type MechanismService interface {
	Get(ctx context.Context, id domain.MechanismID) (domain.MechanismDetails, error)
}

// ComputeService is the subset of reaktoro.Service the HTTP surface needs.
type ComputeService interface {
	Compute(ctx context.Context, reactionID domain.ReactionID, database domain.Database, amounts domain.MoleculeAmountList) ([]reaktoro.Result, error)
}

// Server owns ChemistFlow's three domain services and builds the mux.
type Server struct {
	reactions  ReactionService
	mechanisms MechanismService
	compute    ComputeService
	logger     *zap.Logger
}

// New constructs a Server. Call Mux to obtain the wired http.Handler.
func New(reactions ReactionService, mechanisms MechanismService, compute ComputeService, logger *zap.Logger) *Server {
	return &Server{reactions: reactions, mechanisms: mechanisms, compute: compute, logger: logger}
}

// Mux builds the *http.ServeMux carrying every route Server exposes,
// plus /health and /metrics.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/reaction/{id}", s.handleGetReaction)
	mux.HandleFunc("POST /api/reaction", s.handleCreateReaction)
	mux.HandleFunc("DELETE /api/reaction/{id}", s.handleDeleteReaction)
	mux.HandleFunc("GET /api/mechanism/{id}", s.handleGetMechanism)
	mux.HandleFunc("POST /api/system/properties", s.handleComputeProperties)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Package mechanism is the remote-resource proxy instantiation for
// Mechanisms. Unlike reaction, ChemistFlow's HTTP surface exposes no
// create/delete for mechanisms, so this is a bare wrapper over
// internal/remoteproxy.Proxy.
package mechanism

import (
	"context"

	"go.uber.org/zap"

	"github.com/chemistflow/chemistflow/internal/cachefacade"
	"github.com/chemistflow/chemistflow/internal/domain"
	"github.com/chemistflow/chemistflow/internal/remote"
	"github.com/chemistflow/chemistflow/internal/remoteproxy"
)

// Service is ChemistFlow's Mechanism resource proxy.
type Service struct {
	proxy *remoteproxy.Proxy[domain.MechanismID, domain.MechanismDetails]
}

// New builds a Mechanism service against the Preprocessor's mechanism
// resource at baseURI.
func New(baseURI string, client *remote.Client, cache *cachefacade.Service[domain.MechanismID, domain.MechanismDetails], logger *zap.Logger) *Service {
	return &Service{proxy: remoteproxy.New[domain.MechanismID, domain.MechanismDetails](baseURI, client, cache, logger)}
}

// Get returns the cached or freshly-fetched MechanismDetails for id.
func (s *Service) Get(ctx context.Context, id domain.MechanismID) (domain.MechanismDetails, error) {
	return s.proxy.Get(ctx, id)
}

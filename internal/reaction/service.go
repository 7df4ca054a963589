// Package reaction is the remote-resource proxy instantiation for
// Reactions: a thin wrapper over internal/remoteproxy.Proxy keyed by
// domain.ReactionID, plus the create operation, whose response
// shape (a bare domain.Reaction) differs from the cached "details" value
// (domain.ReactionDetails) and so is not expressible through the shared
// Proxy.Get/Delete alone.
package reaction

import (
	"context"

	"go.uber.org/zap"

	"github.com/chemistflow/chemistflow/internal/cachefacade"
	"github.com/chemistflow/chemistflow/internal/domain"
	"github.com/chemistflow/chemistflow/internal/remote"
	"github.com/chemistflow/chemistflow/internal/remoteproxy"
)

// Service is ChemistFlow's Reaction resource proxy.
type Service struct {
	proxy   *remoteproxy.Proxy[domain.ReactionID, domain.ReactionDetails]
	cache   *cachefacade.Service[domain.ReactionID, domain.ReactionDetails]
	client  *remote.Client
	baseURI string
	logger  *zap.Logger
}

// New builds a Reaction service against the Preprocessor's reaction
// resource at baseURI (e.g. "http://preprocessor:8080/reaction").
func New(baseURI string, client *remote.Client, cache *cachefacade.Service[domain.ReactionID, domain.ReactionDetails], logger *zap.Logger) *Service {
	return &Service{
		proxy:   remoteproxy.New[domain.ReactionID, domain.ReactionDetails](baseURI, client, cache, logger),
		cache:   cache,
		client:  client,
		baseURI: baseURI,
		logger:  logger,
	}
}

// Get returns the cached or freshly-fetched ReactionDetails for id.
func (s *Service) Get(ctx context.Context, id domain.ReactionID) (domain.ReactionDetails, error) {
	return s.proxy.Get(ctx, id)
}

// Create posts a new Reaction to the Preprocessor and caches the result
// as a ReactionDetails with empty reagent/product/condition lists, so an
// immediate follow-up Get is served from cache rather than
// round-tripping back to the Preprocessor.
func (s *Service) Create(ctx context.Context, body domain.Reaction) (domain.Reaction, error) {
	created, err := remoteproxy.PostAndDecode[domain.Reaction](ctx, s.client, s.baseURI, body)
	if err != nil {
		return domain.Reaction{}, err
	}

	details := domain.ReactionDetails{
		Reaction:         created,
		InboundReagents:  []domain.ReagentEntry{},
		OutboundProducts: []domain.ProductEntry{},
		Conditions:       []domain.ConditionEntry{},
	}
	if err := s.cache.Put(ctx, created.ReactionID, details); err != nil && s.logger != nil {
		s.logger.Warn("reaction: cache populate after create failed", zap.Int("reactionId", int(created.ReactionID)), zap.Error(err))
	}
	return created, nil
}

// Delete removes id from the Preprocessor and invalidates the cache.
func (s *Service) Delete(ctx context.Context, id domain.ReactionID) error {
	return s.proxy.Delete(ctx, id)
}

// Package remoteproxy implements ChemistFlow's remote-resource proxy
// protocol: cache-first lookup, HTTP fetch on miss against the
// Preprocessor, structured error taxonomy, cache population on success.
//
// internal/reaction and internal/mechanism are thin instantiations of
// Proxy[K, V], avoiding per-resource-family service duplication.
// Grounded on the teacher's request-forwarding idiom in
// cmd/coordinator/main.go (forward a client call to the right backend,
// translate its status into the local error shape), generalized from
// raw reverse-proxying into a cache-aware typed client.
package remoteproxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/chemistflow/chemistflow/internal/apierr"
	"github.com/chemistflow/chemistflow/internal/cachefacade"
	"github.com/chemistflow/chemistflow/internal/remote"
)

// Proxy fetches and caches one object kind's "details" value V, keyed by
// K, against a Preprocessor resource at baseURI.
type Proxy[K comparable, V any] struct {
	baseURI string
	client  *remote.Client
	cache   *cachefacade.Service[K, V]
	logger  *zap.Logger
}

// New builds a Proxy for one resource family (e.g. baseURI
// "http://preprocessor/reaction").
func New[K comparable, V any](baseURI string, client *remote.Client, cache *cachefacade.Service[K, V], logger *zap.Logger) *Proxy[K, V] {
	return &Proxy[K, V]{baseURI: baseURI, client: client, cache: cache, logger: logger}
}

// Get returns the cached value for id, falling through to a Preprocessor
// GET on a cache miss and populating the cache on success.
func (p *Proxy[K, V]) Get(ctx context.Context, id K) (V, error) {
	var zero V

	if v, ok := p.cache.Get(ctx, id); ok {
		return v, nil
	}

	url := fmt.Sprintf("%s/%v", p.baseURI, id)
	var v V
	status, err := p.client.GetJSON(ctx, url, &v)
	if err != nil {
		var decodeErr *remote.DecodeError
		if errors.As(err, &decodeErr) {
			return zero, apierr.DecodingError(decodeErr.Cause)
		}
		return zero, apierr.NetworkError(err)
	}

	switch {
	case status == http.StatusNotFound:
		return zero, apierr.NotFound(fmt.Sprintf("no resource at %s", url))
	case status >= 200 && status < 300:
		if err := p.cache.Put(ctx, id, v); err != nil && p.logger != nil {
			p.logger.Warn("remoteproxy: cache populate after fetch failed", zap.String("url", url), zap.Error(err))
		}
		return v, nil
	default:
		return zero, apierr.HTTPError(status, fmt.Sprintf("preprocessor returned status %d", status))
	}
}

// Delete issues a Preprocessor DELETE for id, invalidating the cache on
// success (narrowed to a targeted local-tier invalidation per DESIGN.md
// Open Question 2).
func (p *Proxy[K, V]) Delete(ctx context.Context, id K) error {
	url := fmt.Sprintf("%s/%v", p.baseURI, id)
	status, err := p.client.DeleteJSON(ctx, url, nil)
	if err != nil {
		return apierr.NetworkError(err)
	}

	if status != http.StatusNoContent {
		return apierr.DeletionError(status, fmt.Sprintf("preprocessor returned status %d", status))
	}

	if err := p.cache.Delete(id); err != nil && p.logger != nil {
		p.logger.Warn("remoteproxy: cache invalidation after delete failed", zap.String("url", url), zap.Error(err))
	}
	return nil
}

// PostAndDecode issues a Preprocessor POST and decodes a 2xx response
// into R, classifying any failure into the apierr taxonomy. It is a
// package-level function rather than a Proxy method because the
// Preprocessor's create response shape (a bare Reaction) is often
// narrower than the cached "details" value V a Proxy serves on Get —
// callers decode into their own R and build the cached V themselves
// (see internal/reaction.Create).
func PostAndDecode[R any](ctx context.Context, client *remote.Client, url string, body any) (R, error) {
	var zero R
	var out R
	status, err := client.PostJSON(ctx, url, body, &out)
	if err != nil {
		var decodeErr *remote.DecodeError
		if errors.As(err, &decodeErr) {
			return zero, apierr.DecodingError(decodeErr.Cause)
		}
		return zero, apierr.NetworkError(err)
	}

	if status < 200 || status >= 300 {
		return zero, apierr.CreationError(status, fmt.Sprintf("preprocessor returned status %d", status))
	}
	return out, nil
}

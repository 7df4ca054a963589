// Package reaktoro implements ChemistFlow's compute fan-out engine:
// expand one reaction's conditions into N parallel Engine calls,
// gathering a positional result vector that isolates each sub-request's
// failure to its own slot.
//
// The parallel-gather-without-cancellation shape is grounded on
// codenerd's IntelligenceGatherer.GatherIntelligence: an errgroup.Group
// whose Go functions always return nil and instead record failures into
// a result slot directly, so one source's failure never cancels the
// others gathering in parallel.
package reaktoro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chemistflow/chemistflow/internal/apierr"
	"github.com/chemistflow/chemistflow/internal/domain"
	"github.com/chemistflow/chemistflow/internal/remote"
)

func jsonMarshal(v any) ([]byte, error) { return json.Marshal(v) }

// ReactionGetter is the subset of reaction.Service Compute depends on,
// narrowed to avoid an import cycle (internal/reaction does not need to
// know about internal/reaktoro).
type ReactionGetter interface {
	Get(ctx context.Context, id domain.ReactionID) (domain.ReactionDetails, error)
}

// Result is one slot of a compute response: either a computed
// SystemProps or the error that slot's Engine call failed with.
type Result struct {
	Props SystemProps
	Err   error
}

// SystemProps is an alias kept local to this package's public surface so
// callers don't need to import internal/domain just to read a Result.
type SystemProps = domain.SystemProps

// MarshalJSON encodes a Result as a tagged either: a successful slot
// serializes as its SystemProps object directly; a failed slot
// serializes as {"error":"<Kind>","message":...}, mirroring the uniform
// error envelope so the client sees one consistent error shape
// everywhere in the API.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err == nil {
		return jsonMarshal(r.Props)
	}
	if apiErr, ok := apierr.As(r.Err); ok {
		return jsonMarshal(map[string]string{"error": string(apiErr.Kind), "message": apiErr.Message})
	}
	return jsonMarshal(map[string]string{"error": string(apierr.KindEngineError), "message": r.Err.Error()})
}

// Service computes thermodynamic properties across a reaction's
// conditions by fanning compute requests out to the Engine.
type Service struct {
	reactions  ReactionGetter
	client     *remote.Client
	engineURI  string
	logger     *zap.Logger
	fanOutSize prometheusHistogram
}

// prometheusHistogram narrows metrics.Registry.FanOutSize to the one
// method this package calls, so tests can pass nil without importing
// the prometheus client.
type prometheusHistogram interface {
	Observe(float64)
}

// New builds a Service dispatching compute sub-requests to engineURI via
// POST.
func New(reactions ReactionGetter, client *remote.Client, engineURI string, logger *zap.Logger, fanOutSize prometheusHistogram) *Service {
	return &Service{reactions: reactions, client: client, engineURI: engineURI, logger: logger, fanOutSize: fanOutSize}
}

// Compute resolves reactionId's conditions into SystemStates and fans
// them out to the Engine in parallel, returning a result vector whose
// length and order match the flattened condition list.
func (s *Service) Compute(ctx context.Context, reactionID domain.ReactionID, database domain.Database, amounts domain.MoleculeAmountList) ([]Result, error) {
	reaction, err := s.reactions.Get(ctx, reactionID)
	if err != nil {
		apiErr, ok := apierr.As(err)
		if ok && (apiErr.Kind == apierr.KindEngineError || apiErr.Kind == apierr.KindBadRequest) {
			// Open Question 1 (DESIGN.md): only these two reaction-fetch
			// failure kinds are isolated into the result vector; everything
			// else propagates to the HTTP layer as-is (e.g. NotFound -> 404).
			return []Result{{Err: err}}, nil
		}
		return nil, err
	}

	moleculeAmounts := zipMoleculeAmounts(reaction, amounts)
	states := buildSystemStates(reaction, database, moleculeAmounts)

	if s.fanOutSize != nil {
		s.fanOutSize.Observe(float64(len(states)))
	}

	results := make([]Result, len(states))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, state := range states {
		i, state := i, state
		eg.Go(func() error {
			results[i] = s.callEngine(egCtx, state)
			return nil
		})
	}
	_ = eg.Wait() // Go funcs never return non-nil; failures live in results[i].Err

	return results, nil
}

func (s *Service) callEngine(ctx context.Context, state domain.SystemState) Result {
	var props SystemProps
	status, body, err := s.client.PostJSONCaptureBody(ctx, s.engineURI, state, &props)
	if err != nil {
		var decodeErr *remote.DecodeError
		if errors.As(err, &decodeErr) {
			return Result{Err: apierr.EngineError("failed to decode Engine response", decodeErr.Cause)}
		}
		return Result{Err: apierr.EngineError("failed to compute SystemProps", err)}
	}

	switch {
	case status >= 200 && status < 300:
		return Result{Props: props}
	case status == http.StatusBadRequest:
		return Result{Err: apierr.BadRequest(string(body))}
	default:
		return Result{Err: apierr.EngineError("failed to compute SystemProps", fmt.Errorf("engine returned status %d", status))}
	}
}

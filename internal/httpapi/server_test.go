package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemistflow/chemistflow/internal/apierr"
	"github.com/chemistflow/chemistflow/internal/domain"
	"github.com/chemistflow/chemistflow/internal/reaktoro"
)

type fakeReactions struct {
	getFn    func(ctx context.Context, id domain.ReactionID) (domain.ReactionDetails, error)
	createFn func(ctx context.Context, body domain.Reaction) (domain.Reaction, error)
	deleteFn func(ctx context.Context, id domain.ReactionID) error
}

func (f *fakeReactions) Get(ctx context.Context, id domain.ReactionID) (domain.ReactionDetails, error) {
	return f.getFn(ctx, id)
}
func (f *fakeReactions) Create(ctx context.Context, body domain.Reaction) (domain.Reaction, error) {
	return f.createFn(ctx, body)
}
func (f *fakeReactions) Delete(ctx context.Context, id domain.ReactionID) error {
	return f.deleteFn(ctx, id)
}

type fakeMechanisms struct {
	getFn func(ctx context.Context, id domain.MechanismID) (domain.MechanismDetails, error)
}

func (f *fakeMechanisms) Get(ctx context.Context, id domain.MechanismID) (domain.MechanismDetails, error) {
	return f.getFn(ctx, id)
}

type fakeCompute struct {
	computeFn func(ctx context.Context, reactionID domain.ReactionID, database domain.Database, amounts domain.MoleculeAmountList) ([]reaktoro.Result, error)
}

func (f *fakeCompute) Compute(ctx context.Context, reactionID domain.ReactionID, database domain.Database, amounts domain.MoleculeAmountList) ([]reaktoro.Result, error) {
	return f.computeFn(ctx, reactionID, database, amounts)
}

func newTestServer(reactions ReactionService, mechanisms MechanismService, compute ComputeService) http.Handler {
	return New(reactions, mechanisms, compute, nil).Mux()
}

func TestGetReactionReturns200(t *testing.T) {
	want := domain.ReactionDetails{Reaction: domain.Reaction{ReactionID: 7, ReactionName: "R7"}}
	mux := newTestServer(&fakeReactions{getFn: func(ctx context.Context, id domain.ReactionID) (domain.ReactionDetails, error) {
		assert.Equal(t, domain.ReactionID(7), id)
		return want, nil
	}}, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reaction/7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.ReactionDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want, got)
}

func TestGetReactionNonIntegerIdIs400(t *testing.T) {
	mux := newTestServer(&fakeReactions{}, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reaction/abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, string(apierr.KindBadRequest), env.Error)
}

func TestGetReactionNotFoundIs404(t *testing.T) {
	mux := newTestServer(&fakeReactions{getFn: func(ctx context.Context, id domain.ReactionID) (domain.ReactionDetails, error) {
		return domain.ReactionDetails{}, apierr.NotFound("no such reaction")
	}}, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reaction/1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReactionUnclassifiedErrorIs500(t *testing.T) {
	mux := newTestServer(&fakeReactions{getFn: func(ctx context.Context, id domain.ReactionID) (domain.ReactionDetails, error) {
		return domain.ReactionDetails{}, assert.AnError
	}}, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reaction/1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, string(apierr.KindInternalError), env.Error)
}

func TestCreateReactionReturns201(t *testing.T) {
	mux := newTestServer(&fakeReactions{createFn: func(ctx context.Context, body domain.Reaction) (domain.Reaction, error) {
		return domain.Reaction{ReactionID: 9, ReactionName: body.ReactionName}, nil
	}}, nil, nil)

	payload, _ := json.Marshal(domain.Reaction{ReactionName: "fusion"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reaction", bytes.NewReader(payload)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.Reaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.ReactionID(9), got.ReactionID)
}

func TestCreateReactionUpstreamFailureIsCreationError(t *testing.T) {
	mux := newTestServer(&fakeReactions{createFn: func(ctx context.Context, body domain.Reaction) (domain.Reaction, error) {
		return domain.Reaction{}, apierr.CreationError(502, "preprocessor rejected create")
	}}, nil, nil)

	payload, _ := json.Marshal(domain.Reaction{ReactionName: "fusion"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reaction", bytes.NewReader(payload)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDeleteReactionReturns204(t *testing.T) {
	mux := newTestServer(&fakeReactions{deleteFn: func(ctx context.Context, id domain.ReactionID) error {
		return nil
	}}, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/reaction/3", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetMechanismReturns200(t *testing.T) {
	want := domain.MechanismDetails{MechanismContext: domain.MechanismContext{Mechanism: domain.Mechanism{MechanismID: 4}}}
	mux := newTestServer(nil, &fakeMechanisms{getFn: func(ctx context.Context, id domain.MechanismID) (domain.MechanismDetails, error) {
		return want, nil
	}}, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mechanism/4", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestComputePropertiesReturnsResultVector(t *testing.T) {
	mux := newTestServer(nil, nil, &fakeCompute{computeFn: func(ctx context.Context, reactionID domain.ReactionID, database domain.Database, amounts domain.MoleculeAmountList) ([]reaktoro.Result, error) {
		assert.Equal(t, domain.ReactionID(5), reactionID)
		return []reaktoro.Result{
			{Props: domain.SystemProps{"ph": 7.0}},
			{Err: apierr.BadRequest("bad thermodynamics")},
		}, nil
	}})

	body, _ := json.Marshal(map[string]any{
		"reactionId": 5,
		"database":   map[string]string{"name": "supcrt07"},
		"amounts":    map[string]any{"inboundReagentAmounts": []float64{1}, "outboundProductAmounts": []float64{1}},
	})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/system/properties", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, 7.0, got[0]["ph"])
	assert.Equal(t, string(apierr.KindBadRequest), got[1]["error"])
}

func TestComputePropertiesReactionFetchErrorPropagatesAs500(t *testing.T) {
	mux := newTestServer(nil, nil, &fakeCompute{computeFn: func(ctx context.Context, reactionID domain.ReactionID, database domain.Database, amounts domain.MoleculeAmountList) ([]reaktoro.Result, error) {
		return nil, apierr.InternalError("boom", nil)
	}})

	body, _ := json.Marshal(map[string]any{"reactionId": 5})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/system/properties", bytes.NewReader(body)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthReturns200(t *testing.T) {
	mux := newTestServer(&fakeReactions{}, &fakeMechanisms{}, &fakeCompute{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsRouteIsRegistered(t *testing.T) {
	mux := newTestServer(&fakeReactions{}, &fakeMechanisms{}, &fakeCompute{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

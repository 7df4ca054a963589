package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/chemistflow/chemistflow/internal/apierr"
	"github.com/chemistflow/chemistflow/internal/domain"
)

// errorEnvelope is the uniform JSON error body every handler writes on
// failure: {"error":"<Kind>","message":"<string>"}.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError classifies err and writes the matching response: a recoverable
// *apierr.Error surfaces its own Kind and an HTTP status derived from it;
// anything else is an unclassified failure surfaced as 500 InternalError
// with the diagnostic carried in the message, covering transport or
// decoding failures talking to the Preprocessor or Engine.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	apiErr, ok := apierr.As(err)
	if !ok {
		apiErr = apierr.InternalError(err.Error(), err)
	}

	status := statusForKind(apiErr)
	if s.logger != nil {
		if status >= 500 {
			s.logger.Error("httpapi: request failed", zap.String("kind", string(apiErr.Kind)), zap.Error(apiErr))
		} else {
			s.logger.Warn("httpapi: request failed", zap.String("kind", string(apiErr.Kind)), zap.Error(apiErr))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: string(apiErr.Kind), Message: apiErr.Message})
}

// statusForKind derives the HTTP status each apierr.Kind maps to. Kinds
// that already carry an upstream Status (HttpError,
// CreationError, DeletionError) are only trusted when that status is itself
// an error status; otherwise they fall back to 500, since those kinds only
// ever arise from a non-2xx upstream response.
func statusForKind(e *apierr.Error) int {
	switch e.Kind {
	case apierr.KindNotFound:
		return http.StatusNotFound
	case apierr.KindBadRequest:
		return http.StatusBadRequest
	case apierr.KindAlreadyExists:
		return http.StatusConflict
	case apierr.KindCreationError, apierr.KindDeletionError, apierr.KindHTTPError:
		if e.Status >= 400 {
			return e.Status
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleGetReaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseReactionID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	details, err := s.reactions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleCreateReaction(w http.ResponseWriter, r *http.Request) {
	var body domain.Reaction
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apierr.CreationError(http.StatusBadRequest, "malformed reaction body"))
		return
	}

	created, err := s.reactions.Create(r.Context(), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteReaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseReactionID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.reactions.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetMechanism(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, apierr.BadRequest("mechanism id must be an integer: "+raw))
		return
	}

	details, err := s.mechanisms.Get(r.Context(), domain.MechanismID(n))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// computePropsRequest is the body handleComputeProperties decodes: a
// reaction to evaluate, the thermodynamic database to evaluate it against,
// and the list of molecule amounts to fan out over.
type computePropsRequest struct {
	ReactionID domain.ReactionID         `json:"reactionId"`
	Database   domain.Database           `json:"database"`
	Amounts    domain.MoleculeAmountList `json:"amounts"`
}

func (s *Server) handleComputeProperties(w http.ResponseWriter, r *http.Request) {
	var req computePropsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apierr.InternalError("malformed compute request", err))
		return
	}

	results, err := s.compute.Compute(r.Context(), req.ReactionID, req.Database, req.Amounts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func parseReactionID(raw string) (domain.ReactionID, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.BadRequest("reaction id must be an integer: " + raw)
	}
	return domain.ReactionID(n), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

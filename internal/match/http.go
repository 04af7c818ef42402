package match

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/auth"
	httperrors "github.com/axiomduel/platform/pkg/http/errors"
)

// HTTPHandler exposes match queries and the completion endpoint.
// Routes: GET  /v1/matches/{id}
//         POST /v1/matches/{id}/complete
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "match_http").Logger(),
	}
}

type completeRequest struct {
	MyScore       int `json:"my_score"`
	OpponentScore int `json:"opponent_score"`
}

// Handle routes /v1/matches/.
func (h *HTTPHandler) Handle(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/matches/")
	rest = strings.TrimSuffix(rest, "/")

	if id, ok := strings.CutSuffix(rest, "/complete"); ok {
		h.handleComplete(w, r, id)
		return
	}
	h.handleGet(w, r, rest)
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	matchID, err := uuid.Parse(rawID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMatchID, "Malformed match id")
		return
	}

	m, err := h.svc.Get(r.Context(), matchID)
	if errors.Is(err, ErrMatchNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeMatchNotFound, "Match not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("match fetch failed")
		httperrors.RespondInternalError(w, "Failed to load match")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleComplete finalizes a match on behalf of the caller. Both players
// invoke this when their local timer fires; repeats and races are safe.
func (h *HTTPHandler) handleComplete(w http.ResponseWriter, r *http.Request, rawID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	matchID, err := uuid.Parse(rawID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMatchID, "Malformed match id")
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed request body")
		return
	}

	res, err := h.svc.Complete(r.Context(), matchID, claims.UserID, req.MyScore, req.OpponentScore)
	switch {
	case errors.Is(err, ErrMatchNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeMatchNotFound, "Match not found")
		return
	case errors.Is(err, ErrNotParticipant):
		httperrors.RespondForbidden(w, httperrors.ErrCodeNotParticipant, "Not a participant in this match")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("completion failed")
		httperrors.RespondInternalError(w, "Failed to complete match")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

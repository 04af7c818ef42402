package challenge

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/auth"
	"github.com/axiomduel/platform/internal/game/problem"
	httperrors "github.com/axiomduel/platform/pkg/http/errors"
)

// HTTPHandler exposes challenge operations.
// Routes: GET  /v1/challenges
//         POST /v1/challenges
//         POST /v1/challenges/{id}/accept
//         POST /v1/challenges/{id}/decline
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "challenge_http").Logger(),
	}
}

type createRequest struct {
	OpponentName string `json:"opponent_name"`
	Mode         string `json:"mode"`
}

// Handle routes /v1/challenges and /v1/challenges/.
func (h *HTTPHandler) Handle(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/challenges"), "/")
	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.handleList(w, r, claims.UserID)
	case rest == "" && r.Method == http.MethodPost:
		h.handleCreate(w, r, claims.UserID)
	case strings.HasSuffix(rest, "/accept") && r.Method == http.MethodPost:
		h.handleAccept(w, r, claims.UserID, strings.TrimSuffix(rest, "/accept"))
	case strings.HasSuffix(rest, "/decline") && r.Method == http.MethodPost:
		h.handleDecline(w, r, claims.UserID, strings.TrimSuffix(rest, "/decline"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	list, err := h.svc.PendingFor(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID.String()).Msg("challenge list failed")
		httperrors.RespondInternalError(w, "Failed to list challenges")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenges": list})
}

func (h *HTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed request body")
		return
	}
	if strings.TrimSpace(req.OpponentName) == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "opponent_name is required", "opponent_name")
		return
	}
	mode, err := problem.ParseMode(req.Mode)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMode, err.Error())
		return
	}

	c, err := h.svc.Create(r.Context(), userID, req.OpponentName, mode)
	switch {
	case errors.Is(err, ErrOpponentNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeOpponentNotFound, "No player with that name")
		return
	case errors.Is(err, ErrSelfChallenge):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeSelfChallenge, "Cannot challenge yourself")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("user_id", userID.String()).Msg("challenge create failed")
		httperrors.RespondInternalError(w, "Failed to create challenge")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *HTTPHandler) handleAccept(w http.ResponseWriter, r *http.Request, userID uuid.UUID, rawID string) {
	challengeID, err := uuid.Parse(rawID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed challenge id")
		return
	}

	m, err := h.svc.Accept(r.Context(), challengeID, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeChallengeNotFound, "Challenge not found")
		return
	case errors.Is(err, ErrNotChallenged):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Challenge is addressed to another player")
		return
	case errors.Is(err, ErrNotPending):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeChallengeSettled, "Challenge is no longer pending")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("challenge_id", challengeID.String()).Msg("challenge accept failed")
		httperrors.RespondInternalError(w, "Failed to accept challenge")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"match": m})
}

func (h *HTTPHandler) handleDecline(w http.ResponseWriter, r *http.Request, userID uuid.UUID, rawID string) {
	challengeID, err := uuid.Parse(rawID)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed challenge id")
		return
	}

	err = h.svc.Decline(r.Context(), challengeID, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeChallengeNotFound, "Challenge not found")
		return
	case errors.Is(err, ErrNotChallenged):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Challenge is addressed to another player")
		return
	case errors.Is(err, ErrNotPending):
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeChallengeSettled, "Challenge is no longer pending")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("challenge_id", challengeID.String()).Msg("challenge decline failed")
		httperrors.RespondInternalError(w, "Failed to decline challenge")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusDeclined})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

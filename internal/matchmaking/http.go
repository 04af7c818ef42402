package matchmaking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiomduel/platform/internal/auth"
	"github.com/axiomduel/platform/internal/game/problem"
	"github.com/axiomduel/platform/internal/player"
	httperrors "github.com/axiomduel/platform/pkg/http/errors"
)

// ProfileEnsurer creates the player profile on first contact.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, id uuid.UUID, displayName string) (*player.Profile, error)
}

// HTTPHandler exposes the queue over REST. POST both enqueues and polls;
// clients repeat it until they receive a match.
type HTTPHandler struct {
	svc      *Service
	profiles ProfileEnsurer
	logger   zerolog.Logger
}

func NewHTTPHandler(svc *Service, profiles ProfileEnsurer, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:      svc,
		profiles: profiles,
		logger:   logger.With().Str("component", "matchmaking_http").Logger(),
	}
}

type joinRequest struct {
	Mode string `json:"mode"`
}

// Handle routes /v1/matchmaking.
func (h *HTTPHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleJoin(w, r)
	case http.MethodDelete:
		h.handleCancel(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed request body")
		return
	}
	mode, err := problem.ParseMode(req.Mode)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMode, err.Error())
		return
	}

	ctx := r.Context()
	if _, err := h.profiles.Ensure(ctx, claims.UserID, claims.DisplayName); err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("profile ensure failed")
		httperrors.RespondInternalError(w, "Failed to load profile")
		return
	}

	res, err := h.svc.JoinOrMatch(ctx, claims.UserID, mode)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeProfileNotFound, "Player profile not found")
			return
		}
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("join failed")
		httperrors.RespondInternalError(w, "Failed to join queue")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	if err := h.svc.Cancel(r.Context(), claims.UserID); err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("cancel failed")
		httperrors.RespondInternalError(w, "Failed to leave queue")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

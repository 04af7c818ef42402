package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/axiomduel/platform/pkg/http/errors"
)

// HTTPHandler exposes REST endpoints for ranking queries.
type HTTPHandler struct {
	svc      *Service
	profiles ProfileSource
	logger   zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler. profiles serves as
// the fallback source when Redis is empty or unavailable.
func NewHTTPHandler(svc *Service, profiles ProfileSource, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:      svc,
		profiles: profiles,
		logger:   logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the current Elo ranking.
// Route: GET /v1/leaderboard?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	var (
		top    []Entry
		source = "redis"
	)

	if h.svc != nil {
		entries, err := h.svc.Top(ctx, limit)
		if err != nil {
			h.logger.Warn().Err(err).Msg("redis ranking fetch failed")
		} else {
			top = entries
		}
	}

	if len(top) == 0 {
		source = "database"
		top = h.databaseFallback(ctx, limit)
	}
	if top == nil {
		httperrors.RespondError(w, http.StatusServiceUnavailable,
			httperrors.ErrCodeLeaderboardFetchFailed, "leaderboard unavailable")
		return
	}

	resp := map[string]interface{}{
		"top":         top,
		"source":      source,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, resp)
}

func (h *HTTPHandler) databaseFallback(ctx context.Context, limit int) []Entry {
	if h.profiles == nil {
		return nil
	}
	profiles, err := h.profiles.TopByRating(ctx, limit)
	if err != nil {
		h.logger.Warn().Err(err).Msg("database ranking fetch failed")
		return nil
	}

	entries := make([]Entry, len(profiles))
	for i, p := range profiles {
		entries[i] = Entry{
			Rank:        i + 1,
			UserID:      p.ID,
			DisplayName: p.DisplayName,
			Rating:      p.EloRating,
			Wins:        p.TotalWins,
			Losses:      p.TotalLosses,
			Draws:       p.TotalDraws,
		}
	}
	return entries
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

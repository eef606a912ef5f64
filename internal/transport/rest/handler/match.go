package handler

import (
	"context"
	"net/http"

	"codeduel/internal/cache"
	"codeduel/internal/model"
	"codeduel/internal/transport/rest/middleware"

	"github.com/rs/zerolog/log"
)

type MatchReader interface {
	ListByUser(ctx context.Context, username string, limit int) ([]*model.Match, error)
	Leaderboard(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error)
}

// MatchHandler serves match history and win counts.
type MatchHandler struct {
	matches MatchReader
}

func NewMatchHandler(matches MatchReader) *MatchHandler {
	return &MatchHandler{matches: matches}
}

// List handles GET /v1/matches?username=&limit=. Without a username the
// caller's own history is returned.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		username = middleware.GetUsername(r.Context())
	}
	limit := queryInt(r, "limit", 20, 100)

	matches, err := h.matches.ListByUser(r.Context(), username, limit)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("failed to list matches")
		writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username": username,
		"matches":  matches,
	})
}

// Leaderboard handles GET /v1/leaderboard?top= and lists the users with the
// most wins.
func (h *MatchHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	top := queryInt(r, "top", 10, 100)

	entries, err := h.matches.Leaderboard(r.Context(), top)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}

	if entries == nil {
		entries = []cache.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

package service

import (
	"context"
	"fmt"
	"time"

	"codeduel/internal/cache"
	"codeduel/internal/events"
	"codeduel/internal/model"
	"codeduel/internal/repository"

	"github.com/rs/zerolog/log"
)

// MatchService records finished duels and feeds the leaderboard and event
// stream.
type MatchService struct {
	matchRepo   repository.MatchRepo
	leaderboard cache.LeaderboardCache
	publisher   events.Publisher
}

func NewMatchService(matchRepo repository.MatchRepo, leaderboard cache.LeaderboardCache, publisher events.Publisher) *MatchService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &MatchService{
		matchRepo:   matchRepo,
		leaderboard: leaderboard,
		publisher:   publisher,
	}
}

// Create inserts the match. Leaderboard and event failures are logged only;
// the match row is the record of truth.
func (s *MatchService) Create(ctx context.Context, result model.MatchResult) (*model.Match, error) {
	match := &model.Match{
		RoomID:     result.RoomID,
		Winner:     result.Winner,
		Loser:      result.Loser,
		TimeTaken:  result.TimeTaken,
		FinishedAt: time.Now(),
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	logger := log.With().Str("room_id", match.RoomID).Str("winner", match.Winner).Logger()

	if s.leaderboard != nil && match.Winner != model.UnknownPlayer {
		if err := s.leaderboard.IncrementWins(ctx, match.Winner); err != nil {
			logger.Warn().Err(err).Msg("leaderboard update failed")
		}
	}
	if err := s.publisher.PublishMatchFinished(ctx, match); err != nil {
		logger.Warn().Err(err).Msg("match event publish failed")
	}
	return match, nil
}

func (s *MatchService) ListByUser(ctx context.Context, username string, limit int) ([]*model.Match, error) {
	return s.matchRepo.ListByUser(ctx, username, limit)
}

func (s *MatchService) Leaderboard(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	return s.leaderboard.GetTop(ctx, limit)
}


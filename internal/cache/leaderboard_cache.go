package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const winsKey = "leaderboard:wins"

// LeaderboardCache counts matches won per user in a Redis ZSET. It is a
// read-only stats view and plays no part in pairing players.
type LeaderboardCache interface {
	IncrementWins(ctx context.Context, username string) error
	GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// LeaderboardEntry is one user's win count.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
}

type leaderboardCache struct {
	client *redis.Client
}

func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) IncrementWins(ctx context.Context, username string) error {
	return c.client.ZIncrBy(ctx, winsKey, 1, username).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := c.client.ZRevRangeWithScores(ctx, winsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		name, _ := z.Member.(string)
		entries[i] = LeaderboardEntry{
			Username: name,
			Wins:     int(z.Score),
		}
	}
	return entries, nil
}

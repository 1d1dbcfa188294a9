package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const rankingKey = "ranking:block_seconds"

// RankingCache handles Redis ZSET operations for the global focus-time
// ranking
type RankingCache interface {
	SetScore(ctx context.Context, username string, seconds int) error
	Top(ctx context.Context, limit int) ([]Entry, error)
}

// Entry is a single ranking entry as stored in Redis
type Entry struct {
	Username     string
	TotalSeconds int
}

type rankingCache struct {
	client *redis.Client
}

// NewRankingCache creates a new ranking cache
func NewRankingCache(client *redis.Client) RankingCache {
	return &rankingCache{client: client}
}

func (c *rankingCache) SetScore(ctx context.Context, username string, seconds int) error {
	return c.client.ZAdd(ctx, rankingKey, redis.Z{
		Score:  float64(seconds),
		Member: username,
	}).Err()
}

func (c *rankingCache) Top(ctx context.Context, limit int) ([]Entry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, rankingKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		entries[i] = Entry{
			Username:     z.Member.(string),
			TotalSeconds: int(z.Score),
		}
	}
	return entries, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"pairfocus/internal/cache"
	"pairfocus/internal/model"
	"pairfocus/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

// RankingLimit caps how many accounts the ranking endpoint returns.
const RankingLimit = 100

// StatsService accumulates completed focus time and serves the global
// ranking. MongoDB is the source of truth; the Redis sorted set is kept in
// step on every write and rebuilt lazily when empty.
type StatsService struct {
	userRepo repository.UserRepo
	ranking  cache.RankingCache
}

// NewStatsService creates a new stats service
func NewStatsService(userRepo repository.UserRepo, ranking cache.RankingCache) *StatsService {
	return &StatsService{
		userRepo: userRepo,
		ranking:  ranking,
	}
}

// AddTime records seconds of completed focus time for username and returns
// the new lifetime total.
func (s *StatsService) AddTime(ctx context.Context, username string, seconds int) (int, error) {
	total, err := s.userRepo.AddBlockSeconds(ctx, username, seconds)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to add time: %w", err)
	}

	// Keep the sorted set authoritative with the document, not incremented,
	// so a lost cache write cannot drift the board.
	if err := s.ranking.SetScore(ctx, username, total); err != nil {
		return 0, fmt.Errorf("failed to update ranking: %w", err)
	}
	return total, nil
}

// Ranking returns the top accounts by lifetime focus time.
func (s *StatsService) Ranking(ctx context.Context) ([]model.RankingEntry, error) {
	cached, err := s.ranking.Top(ctx, RankingLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranking: %w", err)
	}

	if len(cached) == 0 {
		// Cold cache (fresh Redis or flushed). Rebuild from MongoDB.
		users, err := s.userRepo.TopByBlockSeconds(ctx, RankingLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild ranking: %w", err)
		}
		for _, u := range users {
			if err := s.ranking.SetScore(ctx, u.Username, u.TotalBlockSeconds); err != nil {
				return nil, fmt.Errorf("failed to warm ranking: %w", err)
			}
			cached = append(cached, cache.Entry{Username: u.Username, TotalSeconds: u.TotalBlockSeconds})
		}
	}

	entries := make([]model.RankingEntry, len(cached))
	for i, e := range cached {
		entries[i] = model.RankingEntry{
			Rank:         i + 1,
			Username:     e.Username,
			TotalSeconds: e.TotalSeconds,
		}
	}
	return entries, nil
}

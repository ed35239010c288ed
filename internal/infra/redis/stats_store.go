package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// StatsStore keeps wrong-answer counts in one Redis hash:
//
//	HINCRBY quiz:stats:wrong {questionID} 1
type StatsStore struct {
	client *redis.Client
	key    string
}

func NewStatsStore(client *redis.Client) *StatsStore {
	return &StatsStore{client: client, key: "quiz:stats:wrong"}
}

func (s *StatsStore) Increment(ctx context.Context, questionID string) error {
	return s.client.HIncrBy(ctx, s.key, questionID, 1).Err()
}

func (s *StatsStore) Counts(ctx context.Context) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	counts := make(map[string]int, len(raw))
	for id, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		counts[id] = n
	}
	return counts, nil
}

func (s *StatsStore) Reset(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

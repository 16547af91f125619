package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"imdb-rank/models"
)

// Sorted-set keys maintained for the browsing application.
const (
	WeightedRankKey = "rank:movies:weighted"
	PopularRankKey  = "rank:movies:popular"
	movieKeyPrefix  = "movie:"
)

// RedisRanking mirrors the export ordering into Redis sorted sets.
type RedisRanking struct {
	rdb *redis.Client
}

// NewRedisRanking connects to Redis and checks it is reachable.
func NewRedisRanking(ctx context.Context, addr, password string, db int) (*RedisRanking, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return &RedisRanking{rdb: rdb}, nil
}

// Publish replaces both sorted sets and the per-movie hashes atomically.
func (r *RedisRanking) Publish(ctx context.Context, records []*models.RankedExportRecord) error {
	weighted := make([]redis.Z, 0, len(records))
	popular := make([]redis.Z, 0, len(records))
	for _, rec := range records {
		weighted = append(weighted, redis.Z{Score: rec.WeightedRating, Member: rec.TConst})
		popular = append(popular, redis.Z{Score: float64(rec.NumVotes), Member: rec.TConst})
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, WeightedRankKey, PopularRankKey)
		if len(records) == 0 {
			return nil
		}
		pipe.ZAdd(ctx, WeightedRankKey, weighted...)
		pipe.ZAdd(ctx, PopularRankKey, popular...)
		for _, rec := range records {
			pipe.HSet(ctx, movieKeyPrefix+rec.TConst,
				"rank", rec.Rank(),
				"title", rec.PrimaryTitle,
				"year", rec.StartYear,
				"runtime", rec.RuntimeMinutes,
				"rating", rec.AverageRating,
				"num_votes", rec.NumVotes,
				"weighted_rating", rec.WeightedRating,
			)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: publish ranking: %w", err)
	}
	return nil
}

// Top returns the ids of the n best weighted-rated movies.
func (r *RedisRanking) Top(ctx context.Context, n int64) ([]string, error) {
	ids, err := r.rdb.ZRevRange(ctx, WeightedRankKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: top %d: %w", n, err)
	}
	return ids, nil
}

// Close closes the client.
func (r *RedisRanking) Close() error {
	return r.rdb.Close()
}

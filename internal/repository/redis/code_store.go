package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

const codeKeyPrefix = "verification:code:"

type codeStore struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// NewCodeStore keeps hashed codes in redis with a per-key TTL.
func NewCodeStore(client *redis.Client, m *metrics.Metrics) repository.CodeStore {
	return &codeStore{client: client, metrics: m}
}

func (s *codeStore) Save(ctx context.Context, key, hash string, ttl time.Duration) error {
	timer := prometheus.NewTimer(s.metrics.RedisLatency.WithLabelValues("code_save"))
	defer timer.ObserveDuration()

	err := s.client.Set(ctx, codeKeyPrefix+key, hash, ttl).Err()
	s.metrics.RedisOperations.WithLabelValues("code_save", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (s *codeStore) Get(ctx context.Context, key string) (string, error) {
	timer := prometheus.NewTimer(s.metrics.RedisLatency.WithLabelValues("code_get"))
	defer timer.ObserveDuration()

	v, err := s.client.Get(ctx, codeKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		s.metrics.RedisOperations.WithLabelValues("code_get", "miss").Inc()
		return "", repository.ErrNotFound
	}
	s.metrics.RedisOperations.WithLabelValues("code_get", metrics.Status(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	return v, nil
}

func (s *codeStore) Delete(ctx context.Context, key string) error {
	timer := prometheus.NewTimer(s.metrics.RedisLatency.WithLabelValues("code_delete"))
	defer timer.ObserveDuration()

	err := s.client.Del(ctx, codeKeyPrefix+key).Err()
	s.metrics.RedisOperations.WithLabelValues("code_delete", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("failed to delete code: %w", err)
	}
	return nil
}

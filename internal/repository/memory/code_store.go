package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/booking-api/internal/repository"
)

type codeStore struct {
	cache *cache.Cache
}

// NewCodeStore keeps hashed codes in process memory until they expire.
func NewCodeStore() repository.CodeStore {
	return &codeStore{cache: cache.New(5*time.Minute, time.Minute)}
}

func (s *codeStore) Save(ctx context.Context, key, hash string, ttl time.Duration) error {
	s.cache.Set(key, hash, ttl)
	return nil
}

func (s *codeStore) Get(ctx context.Context, key string) (string, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", repository.ErrNotFound
	}
	return v.(string), nil
}

func (s *codeStore) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

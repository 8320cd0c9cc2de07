package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore caches access tokens between initiations.
type TokenStore interface {
	Get(ctx context.Context) (*AccessToken, bool, error)
	Set(ctx context.Context, tok *AccessToken) error
	Invalidate(ctx context.Context) error
}

// MemoryTokenStore keeps one token per process.
type MemoryTokenStore struct {
	mu  sync.RWMutex
	tok *AccessToken
	now func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{now: time.Now}
}

func (s *MemoryTokenStore) Get(_ context.Context) (*AccessToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tok == nil || !s.tok.ValidAt(s.now()) {
		return nil, false, nil
	}
	t := *s.tok
	return &t, true, nil
}

func (s *MemoryTokenStore) Set(_ context.Context, tok *AccessToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *tok
	s.tok = &t
	return nil
}

func (s *MemoryTokenStore) Invalidate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = nil
	return nil
}

// RedisTokenStore shares a token across instances. The key expires with the token.
type RedisTokenStore struct {
	rdb *redis.Client
	key string
}

func NewRedisTokenStore(rdb *redis.Client, shortCode string) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb, key: "mpesa:token:" + shortCode}
}

type storedToken struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *RedisTokenStore) Get(ctx context.Context) (*AccessToken, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, false, err
	}
	tok := &AccessToken{Value: st.Value, ExpiresAt: st.ExpiresAt}
	if !tok.ValidAt(time.Now()) {
		return nil, false, nil
	}
	return tok, true, nil
}

func (s *RedisTokenStore) Set(ctx context.Context, tok *AccessToken) error {
	ttl := time.Until(tok.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	b, err := json.Marshal(storedToken{Value: tok.Value, ExpiresAt: tok.ExpiresAt})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, b, ttl).Err()
}

func (s *RedisTokenStore) Invalidate(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

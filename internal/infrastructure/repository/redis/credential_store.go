package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

const keyPrefix = "console:credentials:"

// commands is the part of the go-redis client the store needs.
type commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CredentialStore keeps browser logins as JSON values with a TTL.
type CredentialStore struct {
	cmd commands
	ttl time.Duration
}

type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long an unused login survives; zero keeps it forever.
	TTL time.Duration
}

// Open connects and pings the server.
func Open(options Options) (*CredentialStore, *redis.Client, error) {
	addr := options.Addr
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: options.Password,
		DB:       options.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewCredentialStore(client, options.TTL), client, nil
}

func NewCredentialStore(cmd commands, ttl time.Duration) *CredentialStore {
	return &CredentialStore{cmd: cmd, ttl: ttl}
}

func (s *CredentialStore) Load(ctx context.Context, browserID string) (*domain.Credentials, error) {
	raw, err := s.cmd.Get(ctx, keyPrefix+browserID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.WrapError(domain.ErrNotFound, "redis.load_credentials", fmt.Errorf("browser_id=%s", browserID))
		}
		return nil, fmt.Errorf("redis get credentials: %w", err)
	}
	var creds domain.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return &creds, nil
}

func (s *CredentialStore) Save(ctx context.Context, browserID string, creds domain.Credentials) error {
	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := s.cmd.Set(ctx, keyPrefix+browserID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set credentials: %w", err)
	}
	return nil
}

func (s *CredentialStore) Delete(ctx context.Context, browserID string) error {
	if err := s.cmd.Del(ctx, keyPrefix+browserID).Err(); err != nil {
		return fmt.Errorf("redis del credentials: %w", err)
	}
	return nil
}

package invitation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrOTPNotFound = errors.New("otp not found")

// OTPStore keeps one-time codes keyed by invitation token.
type OTPStore interface {
	Save(ctx context.Context, token, code string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// RedisOTPStore stores codes as plain keys with a TTL.
type RedisOTPStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{Client: client, Prefix: "invite:otp:"}
}

func (s *RedisOTPStore) key(token string) string {
	return s.Prefix + token
}

func (s *RedisOTPStore) Save(ctx context.Context, token, code string, ttl time.Duration) error {
	return s.Client.Set(ctx, s.key(token), code, ttl).Err()
}

func (s *RedisOTPStore) Get(ctx context.Context, token string) (string, error) {
	code, err := s.Client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrOTPNotFound
	}
	return code, err
}

func (s *RedisOTPStore) Delete(ctx context.Context, token string) error {
	return s.Client.Del(ctx, s.key(token)).Err()
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idemLock   = "LOCK"
	idemResult = "RES:"
)

// IdempotencyStore remembers the response of a finished request under a
// client key. A key holds either a short-lived lock while the request runs
// or "RES:<status>:<body>" once it has finished.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// StoredResponse is a replayable response.
type StoredResponse struct {
	Status int
	Body   []byte
}

func (s *IdempotencyStore) AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, idemLock, lockTTL).Result()
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, res StoredResponse) error {
	return s.rdb.Set(ctx, key, encodeResult(res), s.ttl).Err()
}

// GetResult returns the stored response, if the request behind key finished.
func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (StoredResponse, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}

	return decodeResult(v)
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func encodeResult(res StoredResponse) string {
	return fmt.Sprintf("%s%d:%s", idemResult, res.Status, res.Body)
}

func decodeResult(v string) (StoredResponse, bool, error) {
	rest, ok := strings.CutPrefix(v, idemResult)
	if !ok {
		return StoredResponse{}, false, nil
	}

	code, body, ok := strings.Cut(rest, ":")
	if !ok {
		return StoredResponse{}, false, fmt.Errorf("malformed idempotency record %q", v)
	}

	status, err := strconv.Atoi(code)
	if err != nil {
		return StoredResponse{}, false, fmt.Errorf("malformed idempotency status: %w", err)
	}

	return StoredResponse{Status: status, Body: []byte(body)}, true, nil
}

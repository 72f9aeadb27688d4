package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-bot/internal/domain"
)

const redisKeyPrefix = "intake:"

// redisStore keeps intake sessions in Redis so a multi-process deployment
// can route a requester's messages to any instance.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Get(ctx context.Context, requesterID int64) (*domain.IntakeSession, error) {
	data, err := s.client.Get(ctx, redisKey(requesterID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var session domain.IntakeSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *redisStore) Put(ctx context.Context, requesterID int64, session *domain.IntakeSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(requesterID), data, s.ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, requesterID int64) error {
	return s.client.Del(ctx, redisKey(requesterID)).Err()
}

func redisKey(requesterID int64) string {
	return redisKeyPrefix + strconv.FormatInt(requesterID, 10)
}

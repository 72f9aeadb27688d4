package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/spec-kit/support-bot/internal/domain"
)

// bigcacheStore is the default in-process session backend. TTL eviction
// doubles as abandonment cleanup: a requester who walks away mid-intake
// simply restarts at the category step later.
type bigcacheStore struct {
	cache *bigcache.BigCache
}

// NewBigcacheStore builds an in-process store with the given session TTL.
func NewBigcacheStore(ttl time.Duration) (Store, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(ttl))
	if err != nil {
		return nil, err
	}
	return &bigcacheStore{cache: cache}, nil
}

func (s *bigcacheStore) Get(ctx context.Context, requesterID int64) (*domain.IntakeSession, error) {
	data, err := s.cache.Get(sessionKey(requesterID))
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
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

func (s *bigcacheStore) Put(ctx context.Context, requesterID int64, session *domain.IntakeSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.cache.Set(sessionKey(requesterID), data)
}

func (s *bigcacheStore) Delete(ctx context.Context, requesterID int64) error {
	err := s.cache.Delete(sessionKey(requesterID))
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}

func sessionKey(requesterID int64) string {
	return strconv.FormatInt(requesterID, 10)
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
)

const keyPrefix = "impersonation:"

// RedisStore keeps impersonation sessions in redis, one key per actor. SETNX
// makes the claim atomic, so two concurrent starts by the same actor resolve
// to exactly one winner even across instances. Keys carry a TTL as a backstop
// against sessions orphaned by a crashed actor session.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a redis-backed session store. ttl bounds how long an
// abandoned overlay can live; 0 means no expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Claim(ctx context.Context, sess domain.ImpersonationSession) (bool, error) {
	payload, err := json.Marshal(storedSession{
		TargetID:  sess.TargetID.String(),
		StartedAt: sess.StartedAt,
	})
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, keyPrefix+sess.ActorID.String(), payload, s.ttl).Result()
}

func (s *RedisStore) Get(ctx context.Context, actorID domain.UserID) (*domain.ImpersonationSession, error) {
	raw, err := s.client.Get(ctx, keyPrefix+actorID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return stored.toDomain(actorID)
}

func (s *RedisStore) Release(ctx context.Context, actorID domain.UserID) error {
	return s.client.Del(ctx, keyPrefix+actorID.String()).Err()
}

func parseUserID(s string) (domain.UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return domain.UserID{}, err
	}
	return domain.NewUserID(id), nil
}

type storedSession struct {
	TargetID  string    `json:"target_id"`
	StartedAt time.Time `json:"started_at"`
}

func (ss storedSession) toDomain(actorID domain.UserID) (*domain.ImpersonationSession, error) {
	targetID, err := parseUserID(ss.TargetID)
	if err != nil {
		return nil, err
	}
	return &domain.ImpersonationSession{
		ActorID:   actorID,
		TargetID:  targetID,
		StartedAt: ss.StartedAt,
	}, nil
}

var _ ports.ImpersonationStore = (*RedisStore)(nil)

package services

import (
	"context"
	"time"

	"healthmate/internal/utils"
	"healthmate/pkg/cache"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CacheService interface {
	// Basic cache operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Set operations
	SAdd(ctx context.Context, key string, members ...interface{}) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key string, member interface{}) (bool, error)

	// Dismissals: a partner hiding an open emergency from their own feed.
	// Purely local state, never written to the shared record.
	DismissEmergency(ctx context.Context, partnerID, emergencyID primitive.ObjectID) error
	GetDismissedEmergencies(ctx context.Context, partnerID primitive.ObjectID) (map[string]bool, error)

	Ping(ctx context.Context) error
}

type cacheService struct {
	redis     *cache.RedisCache
	keyPrefix string
}

func NewCacheService(redis *cache.RedisCache) CacheService {
	return &cacheService{
		redis:     redis,
		keyPrefix: "healthmate:",
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.redis.Get(ctx, s.keyPrefix+key, dest)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.redis.Set(ctx, s.keyPrefix+key, value, expiration)
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.keyPrefix + key
	}
	return s.redis.Delete(ctx, prefixed...)
}

func (s *cacheService) Exists(ctx context.Context, key string) (bool, error) {
	return s.redis.Exists(ctx, s.keyPrefix+key)
}

func (s *cacheService) SAdd(ctx context.Context, key string, members ...interface{}) error {
	return s.redis.SAdd(ctx, s.keyPrefix+key, members...)
}

func (s *cacheService) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.redis.SMembers(ctx, s.keyPrefix+key)
}

func (s *cacheService) SIsMember(ctx context.Context, key string, member interface{}) (bool, error) {
	return s.redis.SIsMember(ctx, s.keyPrefix+key, member)
}

func (s *cacheService) DismissEmergency(ctx context.Context, partnerID, emergencyID primitive.ObjectID) error {
	key := dismissalKey(partnerID)
	if err := s.SAdd(ctx, key, emergencyID.Hex()); err != nil {
		return err
	}
	return s.redis.Expire(ctx, s.keyPrefix+key, utils.DismissalTTL)
}

func (s *cacheService) GetDismissedEmergencies(ctx context.Context, partnerID primitive.ObjectID) (map[string]bool, error) {
	members, err := s.SMembers(ctx, dismissalKey(partnerID))
	if err != nil {
		return nil, err
	}

	dismissed := make(map[string]bool, len(members))
	for _, m := range members {
		dismissed[m] = true
	}
	return dismissed, nil
}

func (s *cacheService) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}

func dismissalKey(partnerID primitive.ObjectID) string {
	return "dismissed:" + partnerID.Hex()
}

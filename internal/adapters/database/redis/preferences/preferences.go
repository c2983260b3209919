package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storkforge/petconnect/internal/domain/entity"
)

const keyPrefix = "reminder:prefs:"

// Storage caches resolved reminder preferences per user.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

func key(userID string) string {
	return keyPrefix + userID
}

// Get reports ok=false on a cache miss.
func (s *Storage) Get(ctx context.Context, userID string) (entity.ReminderPreferences, bool, error) {
	data, err := s.redis.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entity.ReminderPreferences{}, false, nil
		}
		return entity.ReminderPreferences{}, false, err
	}

	var prefs entity.ReminderPreferences
	if err = json.Unmarshal(data, &prefs); err != nil {
		return entity.ReminderPreferences{}, false, err
	}
	return prefs, true, nil
}

func (s *Storage) Set(ctx context.Context, prefs entity.ReminderPreferences, expiration time.Duration) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key(prefs.UserID), data, expiration).Err()
}

func (s *Storage) Clear(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, key(userID)).Err()
}

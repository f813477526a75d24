package roomlist

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisAddr = "localhost:6379"
	roomKeyPrefix    = "skulking:room:"
	roomIndexKey     = "skulking:rooms"
)

// RedisService stores each record as a JSON value and keeps a sorted
// set of room ids for lexicographic paging.
type RedisService struct {
	client *redis.Client
}

func NewRedisServiceFromEnv() (*RedisService, error) {
	if rawURL := strings.TrimSpace(os.Getenv("ROOMLIST_REDIS_URL")); rawURL != "" {
		opts, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, err
		}
		return NewRedisService(redis.NewClient(opts))
	}

	addr := strings.TrimSpace(os.Getenv("ROOMLIST_REDIS_ADDR"))
	if addr == "" {
		addr = defaultRedisAddr
	}
	return NewRedisService(redis.NewClient(&redis.Options{Addr: addr}))
}

func NewRedisService(client *redis.Client) (*RedisService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisService{client: client}, nil
}

func (s *RedisService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func roomKey(roomID string) string { return roomKeyPrefix + roomID }

func (s *RedisService) PutNewRoom(ctx context.Context, record Record) (bool, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return false, err
	}
	created, err := s.client.SetNX(ctx, roomKey(record.RoomID), raw, 0).Result()
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}
	if err := s.client.ZAdd(ctx, roomIndexKey, redis.Z{Score: 0, Member: record.RoomID}).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisService) UpdateRoom(ctx context.Context, record Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, roomKey(record.RoomID), raw, 0).Err(); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, roomIndexKey, redis.Z{Score: 0, Member: record.RoomID}).Err()
}

func (s *RedisService) FindByID(ctx context.Context, roomID string) (Record, error) {
	raw, err := s.client.Get(ctx, roomKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s *RedisService) Select(ctx context.Context, limit int, cursor string) ([]Record, error) {
	limit = clampLimit(limit)
	min := "-"
	if cursor != "" {
		min = "(" + cursor
	}
	ids, err := s.client.ZRangeByLex(ctx, roomIndexKey, &redis.ZRangeBy{
		Min:   min,
		Max:   "+",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Record{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, roomKey(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// index entry without a value, drop the orphan
			_ = s.client.ZRem(ctx, roomIndexKey, ids[i]).Err()
			continue
		}
		var record Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *RedisService) DeleteRoom(ctx context.Context, roomID string) error {
	if err := s.client.Del(ctx, roomKey(roomID)).Err(); err != nil {
		return err
	}
	return s.client.ZRem(ctx, roomIndexKey, roomID).Err()
}

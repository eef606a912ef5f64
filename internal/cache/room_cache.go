package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codeduel/internal/model"

	"github.com/redis/go-redis/v9"
)

const defaultRoomTTL = 24 * time.Hour

// RoomCache keeps a JSON copy of persisted rooms in Redis.
type RoomCache interface {
	Get(ctx context.Context, roomID string) (*model.Room, error)
	Set(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, roomID string) error
}

type roomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache creates a room cache. A non-positive ttl falls back to 24h.
func NewRoomCache(client *redis.Client, ttl time.Duration) RoomCache {
	if ttl <= 0 {
		ttl = defaultRoomTTL
	}
	return &roomCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *roomCache) key(roomID string) string {
	return fmt.Sprintf("room:%s", roomID)
}

func (c *roomCache) Get(ctx context.Context, roomID string) (*model.Room, error) {
	data, err := c.client.Get(ctx, c.key(roomID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var room model.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *roomCache) Set(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(room.RoomID), data, c.ttl).Err()
}

func (c *roomCache) Delete(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, c.key(roomID)).Err()
}

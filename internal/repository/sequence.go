package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const DefaultSequenceKey = "room:sequence"

// RoomSequence hands out room ids from a Redis counter, so processes sharing
// one Redis never reuse an id. Only the counter lives in Redis.
type RoomSequence struct {
	client *redis.Client
	key    string
}

func NewRoomSequence(client *redis.Client, key string) *RoomSequence {
	if key == "" {
		key = DefaultSequenceKey
	}

	return &RoomSequence{
		client: client,
		key:    key,
	}
}

func (that *RoomSequence) Next(ctx context.Context) (string, error) {
	value, err := that.client.Incr(ctx, that.key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to increment %s: %w", that.key, err)
	}

	return strconv.FormatInt(value, 10), nil
}

// Current returns the last id handed out, 0 when none was.
func (that *RoomSequence) Current(ctx context.Context) (int64, error) {
	value, err := that.client.Get(ctx, that.key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", that.key, err)
	}

	return value, nil
}

package presence

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// OnlineKey is the Redis hash mapping an online user id to the instance holding its connection.
const OnlineKey = "presence:online"

// Mirror publishes this instance's online users to a store shared by every instance.
type Mirror interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// releaseLua deletes the field only while this instance still owns it, so a late
// disconnect here cannot clear a reconnect that landed on another instance.
const releaseLua = `
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0
`

type RedisMirror struct {
	client        *redis.Client
	instance      string
	releaseScript *redis.Script
}

func NewRedisMirror(client *redis.Client, instance string) *RedisMirror {
	return &RedisMirror{
		client:        client,
		instance:      instance,
		releaseScript: redis.NewScript(releaseLua),
	}
}

func (m *RedisMirror) SetOnline(ctx context.Context, userID string) error {
	return m.client.HSet(ctx, OnlineKey, userID, m.instance).Err()
}

func (m *RedisMirror) SetOffline(ctx context.Context, userID string) error {
	return m.releaseScript.Run(ctx, m.client, []string{OnlineKey}, userID, m.instance).Err()
}

func (m *RedisMirror) IsOnline(ctx context.Context, userID string) (bool, error) {
	return m.client.HExists(ctx, OnlineKey, userID).Result()
}

// Instance returns the instance currently holding userID, or "" when the user is offline everywhere.
func (m *RedisMirror) Instance(ctx context.Context, userID string) (string, error) {
	instance, err := m.client.HGet(ctx, OnlineKey, userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return instance, err
}

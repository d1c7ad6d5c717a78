// Package ratelimit provides Redis-backed rate limiting using INCR + EXPIRE
// fixed windows. Socket events are limited per user, logins per client IP.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"real-time-messenger/config/logger"
)

// Rule defines a policy: the Redis key prefix, the maximum count allowed in
// the window and the window duration.
type Rule struct {
	Key    string
	Limit  int
	Window time.Duration
}

// MessageRule limits sendMessage and typing events per user.
func MessageRule(limit int, window time.Duration) Rule {
	return Rule{Key: "rl:msg:", Limit: limit, Window: window}
}

// LoginRule limits login attempts per client IP.
func LoginRule(limit int) Rule {
	return Rule{Key: "rl:login:", Limit: limit, Window: time.Minute}
}

// Limiter performs rate limiting checks against Redis. A nil *Limiter allows everything.
type Limiter struct {
	client *redis.Client
	log    *logger.AppLogger
}

// NewLimiter returns nil without a client, which disables limiting.
func NewLimiter(client *redis.Client, log *logger.AppLogger) *Limiter {
	if client == nil {
		return nil
	}
	return &Limiter{client: client, log: log}
}

// Allow increments the identifier's counter and reports whether it is still
// within rule. Redis errors fail open so an outage does not block traffic.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) (bool, error) {
	if l == nil || rule.Limit <= 0 {
		return true, nil
	}
	key := rule.Key + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.log.WS.Warning.Warn().Err(err).Str("key", key).Msg("rate limit INCR failed, failing open")
		return true, err
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			l.log.WS.Warning.Warn().Err(err).Str("key", key).Msg("rate limit EXPIRE failed, failing open")
			// without a TTL the key would block the identifier forever
			l.client.Del(ctx, key)
			return true, err
		}
	}

	return int(count) <= rule.Limit, nil
}

// Remaining returns how many requests the identifier has left in the current window.
func (l *Limiter) Remaining(ctx context.Context, identifier string, rule Rule) (int, error) {
	if l == nil {
		return rule.Limit, nil
	}
	key := rule.Key + identifier

	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return rule.Limit, nil
	}
	if err != nil {
		return rule.Limit, err
	}

	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

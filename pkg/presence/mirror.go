// Package presence mirrors the gateway's in-memory online set into Redis so
// processes that do not own the connection registry (the API, other
// gateways) can answer "is this user online" without a round-trip to the
// gateway itself.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineSetKey = "presence:online"
	lastSeenKey  = "presence:lastseen"
)

type Mirror struct {
	redis *redis.Client
}

func NewMirror(redisAddr string) *Mirror {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	return &Mirror{redis: rdb}
}

// SetOnline adds the user to the online set.
func (m *Mirror) SetOnline(ctx context.Context, userID string, at time.Time) error {
	if err := m.redis.SAdd(ctx, onlineSetKey, userID).Err(); err != nil {
		return fmt.Errorf("mirror online for %s: %w", userID, err)
	}
	return m.touchLastSeen(ctx, userID, at)
}

// SetOffline removes the user from the online set and records last-seen.
func (m *Mirror) SetOffline(ctx context.Context, userID string, at time.Time) error {
	if err := m.redis.SRem(ctx, onlineSetKey, userID).Err(); err != nil {
		return fmt.Errorf("mirror offline for %s: %w", userID, err)
	}
	return m.touchLastSeen(ctx, userID, at)
}

func (m *Mirror) touchLastSeen(ctx context.Context, userID string, at time.Time) error {
	if err := m.redis.HSet(ctx, lastSeenKey, userID, at.UnixMilli()).Err(); err != nil {
		return fmt.Errorf("record last seen for %s: %w", userID, err)
	}
	return nil
}

// IsOnline answers from the mirrored set. Satisfies the dispatcher's
// OnlineChecker.
func (m *Mirror) IsOnline(ctx context.Context, userID string) (bool, error) {
	online, err := m.redis.SIsMember(ctx, onlineSetKey, userID).Result()
	if err != nil {
		return false, fmt.Errorf("presence lookup for %s: %w", userID, err)
	}
	return online, nil
}

// ListOnline returns every user in the mirrored online set.
func (m *Mirror) ListOnline(ctx context.Context) ([]string, error) {
	users, err := m.redis.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list online users: %w", err)
	}
	return users, nil
}

// LastSeen returns the recorded last-seen time, or zero if never seen.
func (m *Mirror) LastSeen(ctx context.Context, userID string) (time.Time, error) {
	millis, err := m.redis.HGet(ctx, lastSeenKey, userID).Int64()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last seen for %s: %w", userID, err)
	}
	return time.UnixMilli(millis), nil
}

func (m *Mirror) Close() error {
	return m.redis.Close()
}

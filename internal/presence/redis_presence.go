// Package presence publishes per-user online state to redis so other
// services can answer "is this user online" without talking to the hub.
// A user with multiple connections stays online until the last one drops;
// keys carry a TTL and are refreshed by a heartbeat so a crashed instance
// leaks nothing permanent.
package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/togisoft/t-force/internal/config"
	"github.com/togisoft/t-force/internal/log"
)

type RedisPresence struct {
	client            *redis.Client
	prefix            string
	keyTTL            time.Duration
	heartbeatInterval time.Duration

	mu     sync.Mutex
	counts map[string]int // user id -> live connection count
	cancel context.CancelFunc
}

func NewRedisPresence(cfg config.RedisConfig) (*RedisPresence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPresence{
		client:            client,
		prefix:            cfg.PresencePrefix,
		keyTTL:            cfg.KeyTTL,
		heartbeatInterval: cfg.HeartbeatInterval,
		counts:            make(map[string]int),
	}, nil
}

func (p *RedisPresence) keyFor(userID string) string {
	return fmt.Sprintf("%s:user:%s", p.prefix, userID)
}

// MarkOnline records one more live connection for the user. The redis key
// is only written on the first connection.
func (p *RedisPresence) MarkOnline(ctx context.Context, userID string) error {
	p.mu.Lock()
	p.counts[userID]++
	first := p.counts[userID] == 1
	p.mu.Unlock()

	if !first {
		return nil
	}

	if err := p.client.Set(ctx, p.keyFor(userID), time.Now().Unix(), p.keyTTL).Err(); err != nil {
		return fmt.Errorf("failed to mark user online: %w", err)
	}

	l := log.L()
	l.Debug().Str(log.FieldUserID, userID).Msg("user online")
	return nil
}

// MarkOffline records one connection gone; the redis key is deleted only
// when the last connection drops.
func (p *RedisPresence) MarkOffline(ctx context.Context, userID string) error {
	p.mu.Lock()
	if p.counts[userID] > 0 {
		p.counts[userID]--
	}
	last := p.counts[userID] == 0
	if last {
		delete(p.counts, userID)
	}
	p.mu.Unlock()

	if !last {
		return nil
	}

	if err := p.client.Del(ctx, p.keyFor(userID)).Err(); err != nil {
		return fmt.Errorf("failed to mark user offline: %w", err)
	}

	l := log.L()
	l.Debug().Str(log.FieldUserID, userID).Msg("user offline")
	return nil
}

// IsOnline reports whether the user currently holds a presence key.
func (p *RedisPresence) IsOnline(ctx context.Context, userID string) (bool, error) {
	err := p.client.Get(ctx, p.keyFor(userID)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check presence: %w", err)
	}
	return true, nil
}

// StartHeartbeat refreshes the TTL of every key this instance owns.
func (p *RedisPresence) StartHeartbeat(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	go p.heartbeatLoop(ctx)
	l := log.L()
	l.Info().Dur("interval", p.heartbeatInterval).Dur("ttl", p.keyTTL).Msg("presence heartbeat started")
}

func (p *RedisPresence) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(p.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshKeys(ctx)
		}
	}
}

func (p *RedisPresence) refreshKeys(ctx context.Context) {
	p.mu.Lock()
	users := make([]string, 0, len(p.counts))
	for u := range p.counts {
		users = append(users, u)
	}
	p.mu.Unlock()

	for _, u := range users {
		if err := p.client.Expire(ctx, p.keyFor(u), p.keyTTL).Err(); err != nil {
			l := log.L()
			l.Error().Str(log.FieldUserID, u).Err(err).Msg("failed to refresh presence key")
		}
	}
}

func (p *RedisPresence) StopHeartbeat() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *RedisPresence) Close() error {
	p.StopHeartbeat()
	return p.client.Close()
}

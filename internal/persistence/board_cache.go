package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hostelkit/maintenance-service/internal/domain"
)

const boardCacheKey = "tickets:board"

// BoardCache keeps the public ticket board in Redis for a short TTL. Every
// ticket mutation invalidates it, so a cached board is at most TTL stale and
// never survives a write. Cache failures degrade to a direct DB read.
type BoardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewBoardCache builds the cache; a nil client disables it.
func NewBoardCache(r *Redis, ttl time.Duration, logger *zap.Logger) *BoardCache {
	var client *redis.Client
	if r != nil {
		client = r.Client
	}
	return &BoardCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached board, or (nil, false) on miss or error.
func (c *BoardCache) Get(ctx context.Context) ([]domain.Ticket, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, boardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("board cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(raw, &tickets); err != nil {
		c.logger.Warn("board cache payload corrupt", zap.Error(err))
		return nil, false
	}
	return tickets, true
}

// Set stores the board listing.
func (c *BoardCache) Set(ctx context.Context, tickets []domain.Ticket) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(tickets)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, boardCacheKey, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("board cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached board.
func (c *BoardCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, boardCacheKey).Err(); err != nil {
		c.logger.Warn("board cache invalidation failed", zap.Error(err))
	}
}

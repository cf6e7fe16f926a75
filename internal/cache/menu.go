// Package cache provides a Redis read-through cache for the menu.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/food-order-webhook/internal/config"
	"github.com/iliyamo/food-order-webhook/internal/model"
)

// Catalog is the menu source being cached.
type Catalog interface {
	LookupItemID(ctx context.Context, name string) (int64, error)
	Menu(ctx context.Context) ([]model.FoodItem, error)
}

// MenuCache serves menu reads from Redis and falls through to the wrapped
// catalog on a miss or any Redis error.  Only successful lookups are cached;
// "not on the menu" is always answered by the catalog so a newly seeded item
// shows up without waiting for the TTL.
type MenuCache struct {
	next   Catalog
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    zerolog.Logger
}

// NewMenuCache returns next unchanged when caching is disabled or rdb is nil.
func NewMenuCache(next Catalog, rdb *redis.Client, cfg config.CacheConfig, log zerolog.Logger) Catalog {
	if !cfg.Enabled || rdb == nil {
		return next
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MenuCache{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: cfg.Prefix,
		log:    log.With().Str("component", "menu_cache").Logger(),
	}
}

func (m *MenuCache) key(parts ...string) string {
	return m.prefix + ":menu:" + strings.Join(parts, ":")
}

// LookupItemID resolves name through the cache.
func (m *MenuCache) LookupItemID(ctx context.Context, name string) (int64, error) {
	key := m.key("item", strings.ToLower(strings.TrimSpace(name)))
	if s, err := m.rdb.Get(ctx, key).Result(); err == nil {
		if id, perr := strconv.ParseInt(s, 10, 64); perr == nil {
			return id, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		m.log.Warn().Err(err).Str("key", key).Msg("redis get failed")
	}

	id, err := m.next.LookupItemID(ctx, name)
	if err != nil {
		return 0, err
	}
	if err := m.rdb.Set(ctx, key, id, m.ttl).Err(); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
	return id, nil
}

// Menu returns the full menu through the cache.
func (m *MenuCache) Menu(ctx context.Context) ([]model.FoodItem, error) {
	key := m.key("all")
	if bs, err := m.rdb.Get(ctx, key).Bytes(); err == nil {
		var items []model.FoodItem
		if jerr := json.Unmarshal(bs, &items); jerr == nil {
			return items, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		m.log.Warn().Err(err).Str("key", key).Msg("redis get failed")
	}

	items, err := m.next.Menu(ctx)
	if err != nil {
		return nil, err
	}
	if bs, err := json.Marshal(items); err == nil {
		if err := m.rdb.Set(ctx, key, bs, m.ttl).Err(); err != nil {
			m.log.Warn().Err(err).Str("key", key).Msg("redis set failed")
		}
	}
	return items, nil
}

// Invalidate drops the cached menu and item lookups.
func (m *MenuCache) Invalidate(ctx context.Context) error {
	return Invalidate(ctx, m.rdb, m.prefix)
}

// Invalidate drops every menu key under prefix.  It is run after the menu
// is reseeded so replicas stop serving stale prices before the TTL.
func Invalidate(ctx context.Context, rdb *redis.Client, prefix string) error {
	iter := rdb.Scan(ctx, 0, prefix+":menu:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

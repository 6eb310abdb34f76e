package utils

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Redis key 前綴，與 middlewares.CacheKeyFrom 一致
const (
	EventsListPrefix = "cache:events:list:"
	EventsItemPrefix = "cache:events:item:"
	// 列表快取世代；key 內含世代，purge 時遞增，舊世代的寫入沒人會讀到
	EventsListGenKey = "cache:events:listgen"
)

type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

// PurgeEventsList drops every cached list response (JSON and .ics) and bumps
// the list generation, so a response still being built under the old
// generation is stored where no later request looks.
func (ci *CacheInvalidator) PurgeEventsList(ctx context.Context) error {
	if err := ci.rdb.Incr(ctx, EventsListGenKey).Err(); err != nil {
		return err
	}
	return ci.purge(ctx, EventsListPrefix+"*")
}

// ListGeneration returns the current list generation (0 before any purge).
func ListGeneration(ctx context.Context, rdb *redis.Client) (int64, error) {
	gen, err := rdb.Get(ctx, EventsListGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// PurgeEventItem drops the cached GET /api/events/:id response for id.
func (ci *CacheInvalidator) PurgeEventItem(ctx context.Context, id string) error {
	return ci.rdb.Del(ctx, EventsItemPrefix+id).Err()
}

func (ci *CacheInvalidator) purge(ctx context.Context, pattern string) error {
	iter := ci.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := ci.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

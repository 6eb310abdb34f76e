package web

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// EventsQueryKey is the query cache key for the event list.
const EventsQueryKey = "/api/events"

// QueryCache caches query results by key until they are invalidated.
// Concurrent fetches of one key share a single call. Invalidate marks the
// entry stale and notifies subscribers so they can re-fetch.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*queryEntry
	subs    map[string]map[int]func()
	nextSub int
	group   singleflight.Group
}

type queryEntry struct {
	data  any
	stale bool
	gen   uint64 // Invalidate 時遞增
}

func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries: make(map[string]*queryEntry),
		subs:    make(map[string]map[int]func()),
	}
}

// Fetch returns the fresh cached value for key or runs fetch to get one.
func (q *QueryCache) Fetch(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	q.mu.Lock()
	e := q.entry(key)
	if e.data != nil && !e.stale {
		data := e.data
		q.mu.Unlock()
		return data, nil
	}
	q.mu.Unlock()

	v, err, _ := q.group.Do(key, func() (any, error) {
		q.mu.Lock()
		gen := q.entry(key).gen
		q.mu.Unlock()

		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		q.mu.Lock()
		e := q.entry(key)
		e.data = data
		// 抓取途中被 invalidate → 資料仍可顯示，但下次要重抓
		e.stale = e.gen != gen
		q.mu.Unlock()
		return data, nil
	})
	return v, err
}

// Peek returns whatever is cached for key, fresh or stale.
func (q *QueryCache) Peek(key string) (data any, fresh bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[key]
	if !ok || e.data == nil {
		return nil, false
	}
	return e.data, !e.stale
}

// Invalidate marks key stale and calls its subscribers.
func (q *QueryCache) Invalidate(key string) {
	for _, fn := range q.expire(key) {
		fn()
	}
}

// Expire marks key stale without notifying anyone; the next Fetch reloads.
func (q *QueryCache) Expire(key string) {
	q.expire(key)
}

func (q *QueryCache) expire(key string) []func() {
	q.mu.Lock()
	e := q.entry(key)
	e.stale = true
	e.gen++
	subs := make([]func(), 0, len(q.subs[key]))
	for _, fn := range q.subs[key] {
		subs = append(subs, fn)
	}
	q.mu.Unlock()

	// 進行中的抓取不再共用
	q.group.Forget(key)
	return subs
}

// Subscribe registers fn to run after every Invalidate of key.
func (q *QueryCache) Subscribe(key string, fn func()) (unsubscribe func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextSub
	q.nextSub++
	if q.subs[key] == nil {
		q.subs[key] = make(map[int]func())
	}
	q.subs[key][id] = fn
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.subs[key], id)
	}
}

// entry must be called with q.mu held.
func (q *QueryCache) entry(key string) *queryEntry {
	e, ok := q.entries[key]
	if !ok {
		e = &queryEntry{}
		q.entries[key] = e
	}
	return e
}

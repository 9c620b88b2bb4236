// Package querycache is a read-through cache for catalogue queries. Entries
// older than StaleAfter are served immediately while one background refresh
// runs; concurrent misses for the same key share a single fetch.
package querycache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/metrics"
)

type Config struct {
	StaleAfter      time.Duration
	ExpireAfter     time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
	RetryInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		StaleAfter:      30 * time.Second,
		ExpireAfter:     5 * time.Minute,
		CleanupInterval: 10 * time.Minute,
		MaxRetries:      3,
		RetryInterval:   100 * time.Millisecond,
	}
}

// FetchFunc loads a value from the backend.
type FetchFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	value     interface{}
	fetchedAt time.Time
}

type Cache struct {
	cfg     Config
	store   *cache.Cache
	group   singleflight.Group
	pending sync.Map
	// gens holds a *atomic.Uint64 per resource, bumped by Invalidate.
	gens    sync.Map
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a cache. m may be nil.
func New(cfg Config, log *logger.Logger, m *metrics.Metrics) *Cache {
	def := DefaultConfig()
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	if cfg.ExpireAfter < cfg.StaleAfter {
		cfg.ExpireAfter = def.ExpireAfter
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if log == nil {
		log = logger.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		cfg:     cfg,
		store:   cache.New(cfg.ExpireAfter, cfg.CleanupInterval),
		log:     log,
		metrics: m,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Key builds the cache key for resource and params. Param order does not
// matter; empty values are dropped.
func Key(resource string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(resource)
	b.WriteByte('?')
	for i, k := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// Get returns the cached value for resource/params, calling fetch on a miss.
// A cancelled ctx abandons the wait; the shared fetch keeps running for the
// other callers.
func (c *Cache) Get(ctx context.Context, resource string, params map[string]string, fetch FetchFunc) (interface{}, error) {
	key := Key(resource, params)

	if v, ok := c.store.Get(key); ok {
		e := v.(entry)
		if c.now().Sub(e.fetchedAt) < c.cfg.StaleAfter {
			c.observe(resource, "hit")
			return e.value, nil
		}
		c.observe(resource, "stale")
		c.refresh(resource, key, fetch)
		return e.value, nil
	}

	c.observe(resource, "miss")
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.load(resource, key, fetch)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh reloads key in the background unless a load is already running.
func (c *Cache) refresh(resource, key string, fetch FetchFunc) {
	if c.ctx.Err() != nil {
		return
	}
	if _, running := c.pending.LoadOrStore(key, struct{}{}); running {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.pending.Delete(key)
		_, err, _ := c.group.Do(key, func() (interface{}, error) {
			return c.load(resource, key, fetch)
		})
		if err != nil {
			c.log.Warn("Background refresh failed", "resource", resource, "key", key, "error", err.Error())
		}
	}()
}

func (c *Cache) generation(resource string) *atomic.Uint64 {
	v, _ := c.gens.LoadOrStore(resource, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

func (c *Cache) load(resource, key string, fetch FetchFunc) (interface{}, error) {
	gen := c.generation(resource)
	startGen := gen.Load()

	var value interface{}
	op := func() error {
		v, err := fetch(c.ctx)
		if err != nil {
			return err
		}
		value = v
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryInterval
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), c.ctx)

	if err := backoff.Retry(op, b); err != nil {
		c.fetched(resource, "error")
		return nil, err
	}
	c.fetched(resource, "success")

	// A load that raced with Invalidate may hold pre-write data.
	if gen.Load() == startGen {
		c.store.Set(key, entry{value: value, fetchedAt: c.now()}, cache.DefaultExpiration)
	}
	return value, nil
}

// Invalidate drops every cached key of resource.
func (c *Cache) Invalidate(resource string) {
	c.generation(resource).Add(1)
	prefix := resource + "?"
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
			c.group.Forget(key)
		}
	}
}

// Close stops background refreshes and waits for running ones.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Cache) observe(resource, result string) {
	if c.metrics != nil {
		c.metrics.CacheRequests.WithLabelValues(resource, result).Inc()
	}
}

func (c *Cache) fetched(resource, status string) {
	if c.metrics != nil {
		c.metrics.CacheFetches.WithLabelValues(resource, status).Inc()
	}
}

// Permanent marks err as not worth retrying, e.g. a not-found.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Fetch is the typed form of Get. A nil cache calls fetch directly.
func Fetch[T any](ctx context.Context, c *Cache, resource string, params map[string]string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return fetch(ctx)
	}

	v, err := c.Get(ctx, resource, params, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("querycache: %s holds %T", resource, v)
	}
	return t, nil
}

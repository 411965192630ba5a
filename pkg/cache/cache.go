// Package cache is a two level read-through cache: an in-process ccache in
// front of an optional Redis hash shared by every API instance.
//
// Entries are keyed by a namespace generation. Invalidate bumps the
// generation, so values computed before a write can never be served after it,
// on this instance or any other sharing the Redis counter.
package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/diagnosis/bnb-marketplace/pkg/logger"
	"github.com/karlseguin/ccache/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/cases"
)

type Cache interface {
	// Generation returns the current namespace generation. Callers read it
	// before loading the value they intend to Set.
	Generation(ctx context.Context) int64
	Get(ctx context.Context, gen int64, key string) ([]byte, bool)
	// Set stores value under gen. It is a no-op once gen is stale.
	Set(ctx context.Context, gen int64, key string, value []byte)
	// Invalidate advances the generation and drops every entry of the
	// namespace on both levels.
	Invalidate(ctx context.Context)
}

type Options struct {
	Namespace    string
	LocalMaxSize int64
	LocalTTL     time.Duration
	SharedTTL    time.Duration
}

type twoLevel struct {
	local  *ccache.Cache[[]byte]
	shared *redis.Client
	opts   Options
	fold   cases.Caser
	gen    atomic.Int64
}

const sharedTimeout = 500 * time.Millisecond

// New builds the cache. A nil Redis client keeps it process-local.
func New(rdb *redis.Client, opts Options) Cache {
	if opts.LocalMaxSize <= 0 {
		opts.LocalMaxSize = 1000
	}
	if opts.LocalTTL <= 0 {
		opts.LocalTTL = 30 * time.Second
	}
	if opts.SharedTTL <= 0 {
		opts.SharedTTL = 5 * time.Minute
	}
	return &twoLevel{
		local:  ccache.New(ccache.Configure[[]byte]().MaxSize(opts.LocalMaxSize)),
		shared: rdb,
		opts:   opts,
		fold:   cases.Fold(),
	}
}

// key namespaces and case-folds key so "Paris" and "paris" share an entry.
func (c *twoLevel) key(gen int64, key string) string {
	return c.opts.Namespace + ":" + strconv.FormatInt(gen, 10) + ":" + c.fold.String(strings.TrimSpace(key))
}

func (c *twoLevel) genKey() string {
	return c.opts.Namespace + ":gen"
}

// observe raises the local generation to at least n and returns the result.
func (c *twoLevel) observe(n int64) int64 {
	for {
		cur := c.gen.Load()
		if n <= cur {
			return cur
		}
		if c.gen.CompareAndSwap(cur, n) {
			return n
		}
	}
}

func (c *twoLevel) Generation(ctx context.Context) int64 {
	if c.shared == nil {
		return c.gen.Load()
	}

	ctx, cancel := context.WithTimeout(ctx, sharedTimeout)
	defer cancel()

	n, err := c.shared.Get(ctx, c.genKey()).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WarnContext(ctx, "shared cache generation read failed", "namespace", c.opts.Namespace, "error", err)
		}
		return c.gen.Load()
	}
	return c.observe(n)
}

func (c *twoLevel) Get(ctx context.Context, gen int64, key string) ([]byte, bool) {
	k := c.key(gen, key)

	if item := c.local.Get(k); item != nil && !item.Expired() {
		return item.Value(), true
	}
	if c.shared == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, sharedTimeout)
	defer cancel()

	val, err := c.shared.HGet(ctx, c.opts.Namespace, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WarnContext(ctx, "shared cache read failed", "key", k, "error", err)
		}
		return nil, false
	}
	c.local.Set(k, val, c.opts.LocalTTL)
	return val, true
}

func (c *twoLevel) Set(ctx context.Context, gen int64, key string, value []byte) {
	if cur := c.Generation(ctx); cur != gen {
		logger.DebugContext(ctx, "dropping stale cache write", "key", key, "generation", gen, "current", cur)
		return
	}

	k := c.key(gen, key)
	c.local.Set(k, value, c.opts.LocalTTL)
	if c.shared == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sharedTimeout)
	defer cancel()

	pipe := c.shared.TxPipeline()
	pipe.HSet(ctx, c.opts.Namespace, k, value)
	pipe.Expire(ctx, c.opts.Namespace, c.opts.SharedTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.WarnContext(ctx, "shared cache write failed", "key", k, "error", err)
	}
}

func (c *twoLevel) Invalidate(ctx context.Context) {
	c.gen.Add(1)
	c.local.DeletePrefix(c.opts.Namespace + ":")
	if c.shared == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, sharedTimeout)
	defer cancel()

	pipe := c.shared.TxPipeline()
	incr := pipe.Incr(ctx, c.genKey())
	pipe.Del(ctx, c.opts.Namespace)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.WarnContext(ctx, "shared cache invalidation failed", "namespace", c.opts.Namespace, "error", err)
		return
	}
	c.observe(incr.Val())
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

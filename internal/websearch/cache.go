package websearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheTTL keeps fresh-news queries fresh; anything longer defeats the
// point of date-restricted search.
const CacheTTL = 60 * time.Second

// Cache is an optional Redis-backed result cache. A nil *Cache is a no-op,
// and cache errors never fail a search.
type Cache struct {
	rdb *redis.Client
}

// NewCache connects to Redis at addr. Empty addr disables the cache.
func NewCache(addr string) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func cacheKey(query string, opts Options) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s|%s|%s|%t",
		query, opts.Count, NormalizeDateRestrict(opts.DateRestrict),
		opts.Language, opts.Region, opts.NewsBias)))
	return "search:" + hex.EncodeToString(sum[:16])
}

func (c *Cache) Get(ctx context.Context, query string, opts Options) ([]Result, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(query, opts)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[SEARCH] cache read warn: %v", err)
		}
		return nil, false
	}
	var results []Result
	if json.Unmarshal(raw, &results) != nil || len(results) == 0 {
		return nil, false
	}
	return results, true
}

func (c *Cache) Set(ctx context.Context, query string, opts Options, results []Result) {
	if c == nil || len(results) == 0 {
		return
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(query, opts), raw, CacheTTL).Err(); err != nil {
		log.Printf("[SEARCH] cache write warn: %v", err)
	}
}

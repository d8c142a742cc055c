package semantic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

// DefaultSimilarityThreshold is the minimum cosine similarity a cached
// entry must clear to count as a semantic hit.
const DefaultSimilarityThreshold = 0.92

// maxIndexEntries bounds how many recent entries Lookup scans, the same
// bounded-recency tradeoff the teacher's redis_task_store.go makes
// between full accuracy and an unbounded SCAN.
const maxIndexEntries = 500

// CachedResult is one semantic-cache hit: the original query, the result
// that was returned for it, and which agent produced it.
type CachedResult struct {
	Query     string    `json:"query"`
	Result    string    `json:"result"`
	Agent     string    `json:"agent"`
	Timestamp time.Time `json:"timestamp"`
}

// Cache is the redis-backed semantic result cache spec.md §6 calls out
// as an external collaborator: near-duplicate queries (via embedding
// cosine similarity) return a cached result instead of re-invoking an
// agent. Mirrors the teacher's RedisClient namespacing/DB-isolation
// convention (core/redis_client.go) rather than using a bare client.
type Cache struct {
	client    *redis.Client
	namespace string
	embedder  Embedder
	threshold float64
	ttl       time.Duration
}

// NewCache returns nil, nil when the semantic cache is disabled in
// configuration, so callers can treat a nil *Cache as "skip the cache"
// without a separate enabled check at every call site.
func NewCache(cfg *core.Config, embedder Embedder) (*Cache, error) {
	if !cfg.Semantic.Enabled {
		return nil, nil
	}
	opt, err := redis.ParseURL(cfg.Semantic.RedisURL)
	if err != nil {
		return nil, core.NewRouterError("semantic.NewCache", "config", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, core.NewRouterError("semantic.NewCache", "connection", err)
	}

	return &Cache{
		client:    client,
		namespace: "router:semantic",
		embedder:  embedder,
		threshold: DefaultSimilarityThreshold,
		ttl:       24 * time.Hour,
	}, nil
}

func (c *Cache) entryKey(hash string) string {
	return fmt.Sprintf("%s:entry:%s", c.namespace, hash)
}

func (c *Cache) indexKey() string {
	return c.namespace + ":index"
}

func (c *Cache) vectorKey(hash string) string {
	return fmt.Sprintf("%s:vector:%s", c.namespace, hash)
}

func queryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:8])
}

// Store records query's result under an exact-match key and adds it to
// the recency index Lookup scans for near-duplicates.
func (c *Cache) Store(ctx context.Context, query, result, agent string) error {
	vec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return core.NewRouterError("semantic.Cache.Store", "embedding", err)
	}

	hash := queryHash(query)
	entry := CachedResult{Query: query, Result: result, Agent: agent, Timestamp: time.Now().UTC()}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return core.NewRouterError("semantic.Cache.Store", "io", err)
	}
	vecJSON, err := json.Marshal(vec)
	if err != nil {
		return core.NewRouterError("semantic.Cache.Store", "io", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.entryKey(hash), entryJSON, c.ttl)
	pipe.Set(ctx, c.vectorKey(hash), vecJSON, c.ttl)
	pipe.ZAdd(ctx, c.indexKey(), &redis.Z{Score: float64(entry.Timestamp.Unix()), Member: hash})
	pipe.ZRemRangeByRank(ctx, c.indexKey(), 0, -(maxIndexEntries + 1))
	if _, err := pipe.Exec(ctx); err != nil {
		return core.NewRouterError("semantic.Cache.Store", "io", err)
	}
	return nil
}

// Lookup returns the highest-similarity cached entry for query, if any
// entry clears the similarity threshold. Exact-hash hits short-circuit
// the embedding scan entirely.
func (c *Cache) Lookup(ctx context.Context, query string) (CachedResult, bool, error) {
	hash := queryHash(query)
	if raw, err := c.client.Get(ctx, c.entryKey(hash)).Bytes(); err == nil {
		var entry CachedResult
		if json.Unmarshal(raw, &entry) == nil {
			return entry, true, nil
		}
	} else if err != redis.Nil {
		return CachedResult{}, false, core.NewRouterError("semantic.Cache.Lookup", "io", err)
	}

	queryVec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return CachedResult{}, false, core.NewRouterError("semantic.Cache.Lookup", "embedding", err)
	}

	hashes, err := c.client.ZRevRange(ctx, c.indexKey(), 0, maxIndexEntries-1).Result()
	if err != nil {
		return CachedResult{}, false, core.NewRouterError("semantic.Cache.Lookup", "io", err)
	}

	best, bestScore := CachedResult{}, 0.0
	found := false
	for _, h := range hashes {
		vecRaw, err := c.client.Get(ctx, c.vectorKey(h)).Bytes()
		if err != nil {
			continue
		}
		var vec Vector
		if json.Unmarshal(vecRaw, &vec) != nil {
			continue
		}
		score := CosineSimilarity(queryVec, vec)
		if score < c.threshold || score <= bestScore {
			continue
		}
		entryRaw, err := c.client.Get(ctx, c.entryKey(h)).Bytes()
		if err != nil {
			continue
		}
		var entry CachedResult
		if json.Unmarshal(entryRaw, &entry) != nil {
			continue
		}
		best, bestScore, found = entry, score, true
	}
	return best, found, nil
}

// Close releases the underlying redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

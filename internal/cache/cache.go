// Package cache is a tiered-TTL response cache fronting outbound API calls.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Class selects a TTL from a fixed table. Staleness inside the window is an
// accepted tradeoff; entries are never purged eagerly by writes.
type Class string

const (
	ClassSearch       Class = "search"
	ClassDetails      Class = "details"
	ClassAvailability Class = "availability"
)

func (c Class) TTL() time.Duration {
	switch c {
	case ClassSearch:
		return time.Hour
	case ClassDetails:
		return 24 * time.Hour
	case ClassAvailability:
		return 5 * time.Minute
	default:
		return 5 * time.Minute
	}
}

type Cache struct {
	c   *redis.Client
	log zerolog.Logger
}

func New(addr, pass string, db int, log zerolog.Logger) *Cache {
	return &Cache{
		c:   redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		log: log,
	}
}

// NewWithClient wires an existing client; tests use this with miniredis.
func NewWithClient(c *redis.Client, log zerolog.Logger) *Cache {
	return &Cache{c: c, log: log}
}

func (r *Cache) Close() error { return r.c.Close() }

// Key builds a deterministic fingerprint of the request parameters.
func Key(class Class, parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return "oakley:" + string(class) + ":" + hex.EncodeToString(sum[:])
}

// GetOrFetch returns the cached value when present within TTL, otherwise
// invokes fetch, stores the result and returns it. A failed cache read or
// write is logged and never fails the caller's request.
func GetOrFetch[T any](ctx context.Context, r *Cache, class Class, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var out T
	b, err := r.c.Get(ctx, key).Bytes()
	if err == nil {
		if jerr := json.Unmarshal(b, &out); jerr == nil {
			return out, nil
		}
		// undecodable entry: fall through to a fresh fetch
	} else if err != redis.Nil {
		r.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	out, err = fetch(ctx)
	if err != nil {
		return out, err
	}

	if b, jerr := json.Marshal(out); jerr == nil {
		if serr := r.c.Set(ctx, key, b, class.TTL()).Err(); serr != nil {
			r.log.Warn().Err(serr).Str("key", key).Msg("cache write failed")
		}
	}
	return out, nil
}

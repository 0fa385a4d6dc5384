package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"vedexpert/internal"
)

const DefaultTTL = 60 * time.Minute

type entry struct {
	result   internal.ClassificationResult
	storedAt time.Time
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// ResultCache memoizes classification results by descriptor fingerprint.
// The declared value is not part of the key.
type ResultCache struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	data   map[string]entry
	hits   int64
	misses int64
}

func New(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{ttl: ttl, now: time.Now, data: make(map[string]entry)}
}

// WithClock replaces the time source; used by tests.
func (c *ResultCache) WithClock(now func() time.Time) *ResultCache {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Key fingerprints the fields that drive classification. Each field is
// length-prefixed so no two field tuples share an encoding.
func Key(d internal.ProductDescriptor) string {
	h := sha256.New()
	var size [binary.MaxVarintLen64]byte
	for _, p := range []string{d.Name, d.Material, d.Function, d.OriginCountry} {
		p = strings.ToLower(strings.TrimSpace(p))
		n := binary.PutUvarint(size[:], uint64(len(p)))
		h.Write(size[:n])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ResultCache) expired(e entry, now time.Time) bool {
	return now.Sub(e.storedAt) >= c.ttl
}

// Get counts an entry aged TTL or more as a miss and drops it.
func (c *ResultCache) Get(d internal.ProductDescriptor) (internal.ClassificationResult, bool) {
	key := Key(d)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		c.misses++
		return internal.ClassificationResult{}, false
	}
	if c.expired(e, c.now()) {
		delete(c.data, key)
		c.misses++
		return internal.ClassificationResult{}, false
	}
	c.hits++
	return e.result, true
}

func (c *ResultCache) Set(d internal.ProductDescriptor, result internal.ClassificationResult) {
	key := Key(d)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry{result: result, storedAt: c.now()}
}

// Clear drops all entries and resets counters in one step.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]entry)
	c.hits = 0
	c.misses = 0
}

func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: len(c.data)}
}

// Sweep removes expired entries and returns how many were dropped.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.data {
		if c.expired(e, now) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (c *ResultCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

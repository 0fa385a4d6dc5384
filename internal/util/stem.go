package util

import (
	"strings"
	"sync"

	"github.com/kljensen/snowball"
)

// stemCacheLimit bounds the memo; it is reset when full.
const stemCacheLimit = 8192

var stemCache = struct {
	mu sync.RWMutex
	m  map[string]string
}{m: make(map[string]string, stemCacheLimit)}

// Stem returns the Russian Snowball stem of word.
func Stem(word string) string {
	normalized := strings.ToLower(strings.TrimSpace(word))
	if normalized == "" {
		return ""
	}

	stemCache.mu.RLock()
	cached, ok := stemCache.m[normalized]
	stemCache.mu.RUnlock()
	if ok {
		return cached
	}

	stemmed, err := snowball.Stem(normalized, "russian", true)
	if err != nil || stemmed == "" {
		stemmed = normalized
	}

	stemCache.mu.Lock()
	if len(stemCache.m) >= stemCacheLimit {
		stemCache.m = make(map[string]string, stemCacheLimit)
	}
	stemCache.m[normalized] = stemmed
	stemCache.mu.Unlock()
	return stemmed
}

func StemTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = Stem(t)
	}
	return out
}

package pipeline

import (
	"sort"
	"sync"

	"vedexpert/internal/cache"
)

const popularCodesLimit = 10

type CodeCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Stats is a read-only snapshot for monitoring.
type Stats struct {
	Hits          int64       `json:"hits"`
	Misses        int64       `json:"misses"`
	CacheSize     int         `json:"cache_size"`
	TotalQueries  int         `json:"total_queries"`
	Classified    int         `json:"classified"`
	NotClassified int         `json:"not_classified"`
	Lookups       int         `json:"lookups"`
	PopularCodes  []CodeCount `json:"popular_codes"`
}

type statsTracker struct {
	mu            sync.Mutex
	totalQueries  int
	classified    int
	notClassified int
	lookups       int
	codes         map[string]int
}

func newStatsTracker() *statsTracker {
	return &statsTracker{codes: make(map[string]int)}
}

// recordQuery counts a query; an empty code means it was not classified.
func (t *statsTracker) recordQuery(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalQueries++
	if code == "" {
		t.notClassified++
		return
	}
	t.classified++
	t.codes[code]++
}

func (t *statsTracker) recordLookup() {
	t.mu.Lock()
	t.lookups++
	t.mu.Unlock()
}

func (t *statsTracker) snapshot(cs cache.Stats) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	popular := make([]CodeCount, 0, len(t.codes))
	for code, n := range t.codes {
		popular = append(popular, CodeCount{Code: code, Count: n})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].Count != popular[j].Count {
			return popular[i].Count > popular[j].Count
		}
		return popular[i].Code < popular[j].Code
	})
	if len(popular) > popularCodesLimit {
		popular = popular[:popularCodesLimit]
	}

	return Stats{
		Hits:          cs.Hits,
		Misses:        cs.Misses,
		CacheSize:     cs.Size,
		TotalQueries:  t.totalQueries,
		Classified:    t.classified,
		NotClassified: t.notClassified,
		Lookups:       t.lookups,
		PopularCodes:  popular,
	}
}

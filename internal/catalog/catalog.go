package catalog

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vedexpert/internal"
	"vedexpert/internal/util"
)

const DefaultSearchLimit = 10

type snapshot struct {
	index    *Index
	source   string
	loadedAt time.Time
}

// Catalog is a read-mostly tariff store. Readers never lock; reloads build
// a new index and swap it in whole.
type Catalog struct {
	source   Source
	snap     atomic.Pointer[snapshot]
	reloadMu sync.Mutex
}

type Stats struct {
	Entries           int            `json:"entries"`
	Groups            int            `json:"groups"`
	ByGroup           map[string]int `json:"by_group"`
	WithDuties        int            `json:"with_duties"`
	WithCertification int            `json:"with_certification"`
	WithRestrictions  int            `json:"with_restrictions"`
	Source            string         `json:"source"`
	LoadedAt          time.Time      `json:"loaded_at"`
}

// Load reads the catalog from source. A failed initial load leaves an empty
// catalog and logs a warning, so the service can still start.
func Load(ctx context.Context, source Source) *Catalog {
	c := &Catalog{source: source}
	c.snap.Store(&snapshot{index: BuildIndex(nil), source: describe(source)})
	if source == nil {
		return c
	}
	if _, err := c.Reload(ctx); err != nil {
		slog.Warn("catalog unavailable, starting empty", "source", describe(source), "error", err)
	}
	return c
}

func NewFromEntries(entries []internal.TariffEntry) *Catalog {
	c := &Catalog{}
	c.snap.Store(&snapshot{index: BuildIndex(entries), source: "memory", loadedAt: time.Now()})
	return c
}

// Reload re-reads the source and swaps the snapshot. On failure the
// previous snapshot stays in place.
func (c *Catalog) Reload(ctx context.Context) (int, error) {
	if c.source == nil {
		return 0, &LoadError{Source: "none", Err: errors.New("catalog has no source")}
	}

	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	start := time.Now()
	name := describe(c.source)
	rc, err := c.source.Open(ctx)
	if err != nil {
		return 0, &LoadError{Source: name, Err: err}
	}
	defer rc.Close()

	entries, err := Decode(rc)
	if err != nil {
		return 0, &LoadError{Source: name, Err: err}
	}

	c.snap.Store(&snapshot{index: BuildIndex(entries), source: name, loadedAt: time.Now()})
	slog.Info("catalog loaded", "source", name, "entries", len(entries), "took", time.Since(start))
	return len(entries), nil
}

func (c *Catalog) index() *Index {
	return c.snap.Load().index
}

func (c *Catalog) Len() int {
	return len(c.index().Entries)
}

// FindByCode matches the digits of code exactly, else returns the first
// entry in catalog order whose code starts with them.
func (c *Catalog) FindByCode(code string) (internal.TariffEntry, bool) {
	norm := util.NormalizeCode(code)
	if norm == "" {
		return internal.TariffEntry{}, false
	}
	idx := c.index()
	if pos, ok := idx.ByCode[norm]; ok {
		return idx.Entries[pos], true
	}
	for _, e := range idx.Entries {
		if strings.HasPrefix(e.Code, norm) {
			return e, true
		}
	}
	return internal.TariffEntry{}, false
}

// SearchByName returns entries whose name or description contains query,
// case-insensitively, in catalog order. limit <= 0 means DefaultSearchLimit.
func (c *Catalog) SearchByName(query string, limit int) []internal.TariffEntry {
	q := util.NormalizeText(query)
	if len([]rune(q)) < 2 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	idx := c.index()
	out := []internal.TariffEntry{}
	positions, narrowed := idx.candidates(q)
	if !narrowed {
		for i := range idx.Entries {
			if idx.matches(i, q) {
				out = append(out, idx.Entries[i])
				if len(out) >= limit {
					break
				}
			}
		}
		return out
	}

	for _, pos := range positions {
		if idx.matches(pos, q) {
			out = append(out, idx.Entries[pos])
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

func (c *Catalog) GetByGroup(group string) []internal.TariffEntry {
	g := util.NormalizeText(group)
	if g == "" {
		return nil
	}
	idx := c.index()
	var positions []int
	for norm, pos := range idx.NormalizedGroupPos {
		if strings.Contains(norm, g) {
			positions = append(positions, pos...)
		}
	}
	sort.Ints(positions)

	out := make([]internal.TariffEntry, 0, len(positions))
	for _, pos := range positions {
		out = append(out, idx.Entries[pos])
	}
	return out
}

func (c *Catalog) RandomSample(n int) []internal.TariffEntry {
	entries := c.index().Entries
	if n <= 0 {
		return nil
	}
	if n >= len(entries) {
		out := make([]internal.TariffEntry, len(entries))
		copy(out, entries)
		return out
	}
	out := make([]internal.TariffEntry, 0, n)
	for _, pos := range rand.Perm(len(entries))[:n] {
		out = append(out, entries[pos])
	}
	return out
}

func (c *Catalog) Statistics() Stats {
	snap := c.snap.Load()
	stats := Stats{ByGroup: map[string]int{}, Source: snap.source, LoadedAt: snap.loadedAt}
	for _, e := range snap.index.Entries {
		stats.Entries++
		group := strings.TrimSpace(e.Group)
		if group == "" {
			group = "—"
		}
		stats.ByGroup[group]++
		if len(e.Duties) > 0 {
			stats.WithDuties++
		}
		if len(e.Certification) > 0 {
			stats.WithCertification++
		}
		if len(e.Restrictions) > 0 {
			stats.WithRestrictions++
		}
	}
	stats.Groups = len(stats.ByGroup)
	return stats
}

func describe(source Source) string {
	if source == nil {
		return "none"
	}
	return source.String()
}

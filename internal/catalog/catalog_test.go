package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedexpert/internal"
)

func fixtureEntries() []internal.TariffEntry {
	return []internal.TariffEntry{
		{Code: "8516710000", Name: "Приборы электронагревательные для приготовления кофе или чая", Group: "85 Электрические машины", Duties: map[string]float64{"base": 8.5}},
		{Code: "8419812000", Name: "Кофеварки и другие приспособления для приготовления кофе", Group: "84 Реакторы ядерные, котлы, оборудование", Duties: map[string]float64{"base": 0}},
		{Code: "8471300000", Name: "Машины вычислительные портативные массой не более 10 кг", Description: "Ноутбуки, планшеты", Group: "84 Реакторы ядерные, котлы, оборудование", Certification: []string{"ЭМС"}},
		{Code: "8471410000", Name: "Машины вычислительные прочие", Group: "84 Реакторы ядерные, котлы, оборудование"},
		{Code: "0901210000", Name: "Кофе жареный с кофеином", Group: "09 Кофе, чай"},
	}
}

func writeCatalogFile(t *testing.T, dir string, entries []internal.TariffEntry) string {
	t.Helper()
	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{"code": e.Code, "name": e.Name, "description": e.Description, "group": e.Group, "duties": e.Duties})
	}
	blob, err := json.Marshal(map[string]any{"database": map[string]any{"products": items}})
	require.NoError(t, err)
	path := filepath.Join(dir, "tnved.json")
	require.NoError(t, os.WriteFile(path, blob, 0o644))
	return path
}

func TestFindByCode(t *testing.T) {
	c := NewFromEntries(fixtureEntries())

	e, ok := c.FindByCode("8471300000")
	require.True(t, ok)
	assert.Equal(t, "8471300000", e.Code)

	e, ok = c.FindByCode("8471 30")
	require.True(t, ok)
	assert.Equal(t, "8471300000", e.Code)

	e, ok = c.FindByCode("8471")
	require.True(t, ok)
	assert.Equal(t, "8471300000", e.Code, "prefix match returns the first entry in catalog order")

	_, ok = c.FindByCode("0000000000")
	assert.False(t, ok)
	_, ok = c.FindByCode("")
	assert.False(t, ok)
	_, ok = c.FindByCode("abc")
	assert.False(t, ok)
}

func TestFindByCodeRoundTripsGeneratedCatalog(t *testing.T) {
	faker := gofakeit.New(42)
	seen := map[string]struct{}{}
	var entries []internal.TariffEntry
	for len(entries) < 200 {
		code := faker.Numerify("##########")
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		entries = append(entries, internal.TariffEntry{Code: code, Name: faker.ProductName()})
	}

	c := NewFromEntries(entries)
	for _, e := range entries {
		got, ok := c.FindByCode(e.Code)
		require.True(t, ok, e.Code)
		require.Equal(t, e.Code, got.Code)
	}
}

func TestSearchByName(t *testing.T) {
	c := NewFromEntries(fixtureEntries())

	results := c.SearchByName("КОФЕ", 0)
	require.Len(t, results, 3)
	assert.Equal(t, "8516710000", results[0].Code)
	assert.Equal(t, "8419812000", results[1].Code)
	assert.Equal(t, "0901210000", results[2].Code)

	results = c.SearchByName("кофе", 2)
	assert.Len(t, results, 2)

	results = c.SearchByName("ноутбук", 10)
	require.Len(t, results, 1, "description is searched too")
	assert.Equal(t, "8471300000", results[0].Code)

	results = c.SearchByName("ины вычисл", 10)
	assert.Len(t, results, 2, "substring spanning words")

	assert.Empty(t, c.SearchByName("к", 10))
	assert.Empty(t, c.SearchByName(" ", 10))
	assert.Empty(t, c.SearchByName("xyzzy", 10))
}

func TestSearchByNameShortTokensFallBackToScan(t *testing.T) {
	c := NewFromEntries([]internal.TariffEntry{
		{Code: "1111111111", Name: "Чай зеленый"},
		{Code: "2222222222", Name: "Ча-ча"},
	})
	results := c.SearchByName("ча", 10)
	assert.Len(t, results, 2)
}

func TestSearchMatchesLinearScan(t *testing.T) {
	faker := gofakeit.New(7)
	var entries []internal.TariffEntry
	for i := 0; i < 300; i++ {
		entries = append(entries, internal.TariffEntry{
			Code:        fmt.Sprintf("%010d", i),
			Name:        faker.ProductName(),
			Description: faker.Sentence(6),
		})
	}
	c := NewFromEntries(entries)
	idx := c.index()

	for _, q := range []string{"pro", "the", "smart", "al", "ic a", "zzz"} {
		var want []string
		for i := range entries {
			if idx.matches(i, q) {
				want = append(want, entries[i].Code)
			}
		}
		var got []string
		for _, e := range c.SearchByName(q, len(entries)) {
			got = append(got, e.Code)
		}
		assert.Equal(t, want, got, q)
	}
}

func TestGetByGroup(t *testing.T) {
	c := NewFromEntries(fixtureEntries())
	results := c.GetByGroup("реакторы")
	require.Len(t, results, 3)
	assert.Equal(t, "8419812000", results[0].Code)
	assert.Empty(t, c.GetByGroup(""))
}

func TestRandomSample(t *testing.T) {
	c := NewFromEntries(fixtureEntries())
	assert.Len(t, c.RandomSample(3), 3)
	assert.Len(t, c.RandomSample(50), 5)
	assert.Empty(t, c.RandomSample(0))

	sample := c.RandomSample(5)
	codes := map[string]struct{}{}
	for _, e := range sample {
		codes[e.Code] = struct{}{}
	}
	assert.Len(t, codes, 5)
}

func TestStatistics(t *testing.T) {
	c := NewFromEntries(fixtureEntries())
	stats := c.Statistics()
	assert.Equal(t, 5, stats.Entries)
	assert.Equal(t, 3, stats.Groups)
	assert.Equal(t, 2, stats.WithDuties)
	assert.Equal(t, 1, stats.WithCertification)
	assert.Equal(t, 3, stats.ByGroup["84 Реакторы ядерные, котлы, оборудование"])
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	c := Load(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "missing.json")})
	assert.Equal(t, 0, c.Len())
	_, ok := c.FindByCode("8471300000")
	assert.False(t, ok)
	assert.Empty(t, c.SearchByName("кофе", 10))
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalogFile(t, dir, fixtureEntries())

	c := Load(context.Background(), FileSource{Path: path})
	require.Equal(t, 5, c.Len())

	require.NoError(t, os.WriteFile(path, []byte(`{"broken":`), 0o644))
	_, err := c.Reload(context.Background())
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, path, loadErr.Source)
	assert.Equal(t, 5, c.Len())

	writeCatalogFile(t, dir, fixtureEntries()[:2])
	n, err := c.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Len())
}

func TestReloadWithoutSource(t *testing.T) {
	c := NewFromEntries(fixtureEntries())
	_, err := c.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, 5, c.Len())
}

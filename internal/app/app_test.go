package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedexpert/internal"
	"vedexpert/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuildWiresCatalogAndRules(t *testing.T) {
	catalogPath := writeFile(t, "tnved.json", `{"products": [
		{"code": "9202909000", "name": "Гитары акустические", "group": "92 Инструменты музыкальные"},
		{"code": "8516710000", "name": "Приборы для приготовления кофе или чая", "group": "85 Электрические машины"}
	]}`)
	rulesPath := writeFile(t, "rules.toml", `
[[rule]]
name = "guitar"
when = 'name.contains("гитар")'
code = "9202909000"
description = "Гитары"
duty = "5%"
`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := Build(ctx, config.Config{CatalogSource: catalogPath, RulesPath: rulesPath, DefaultOriginCountry: "CN", DefaultDeclaredValue: 1000})
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Catalog().Len())

	q := svc.ClassifyDescriptor(internal.ProductDescriptor{Name: "гитара", OriginCountry: "ES"}, 1)
	require.NotNil(t, q.Classification)
	assert.Equal(t, "9202909000", q.Classification.Code)
	require.NotNil(t, q.CatalogEntry)
	assert.Equal(t, "Гитары акустические", q.CatalogEntry.Name)
}

func TestBuildWithoutCatalogSource(t *testing.T) {
	svc, err := Build(context.Background(), config.Config{})
	require.NoError(t, err)
	assert.Zero(t, svc.Catalog().Len())
}

func TestBuildRejectsBrokenRules(t *testing.T) {
	rulesPath := writeFile(t, "rules.toml", "[[rule]]\nname = \"x\"\nwhen = 'name.contains('\ncode = \"0902300000\"\n")
	_, err := Build(context.Background(), config.Config{RulesPath: rulesPath})
	assert.ErrorContains(t, err, "custom rules")

	_, err = Build(context.Background(), config.Config{CatalogSource: "s3://bucket-only"})
	assert.ErrorContains(t, err, "catalog source")
}

func TestAdvisorDisabledWithoutBaseURL(t *testing.T) {
	assert.False(t, Advisor(config.Config{}).Enabled())
	assert.True(t, Advisor(config.Config{AdvisorBaseURL: "http://localhost:1"}).Enabled())
}

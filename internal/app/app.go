// Package app assembles the pipeline service from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"vedexpert/internal/advisor"
	"vedexpert/internal/cache"
	"vedexpert/internal/catalog"
	"vedexpert/internal/classifier"
	"vedexpert/internal/config"
	"vedexpert/internal/cost"
	"vedexpert/internal/pipeline"
	"vedexpert/internal/query"
)

// Build loads the catalog and custom rules and wires the pipeline. Cache
// sweeping and catalog watching run in the background until ctx is done.
func Build(ctx context.Context, cfg config.Config) (*pipeline.Service, error) {
	var cat *catalog.Catalog
	if cfg.CatalogSource == "" {
		slog.Warn("CATALOG_SOURCE is not set, starting with an empty catalog")
		cat = catalog.Load(ctx, nil)
	} else {
		src, err := catalog.NewSource(ctx, cfg, cfg.CatalogSource)
		if err != nil {
			return nil, fmt.Errorf("catalog source: %w", err)
		}
		cat = catalog.Load(ctx, src)
	}
	slog.Info("catalog ready", "source", cfg.CatalogSource, "entries", cat.Len())

	if cfg.CatalogWatch {
		go func() {
			if err := cat.Watch(ctx, cfg.CatalogWatchDebounce); err != nil {
				slog.Warn("catalog watch stopped", "error", err)
			}
		}()
	}

	rules, err := classifier.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("custom rules: %w", err)
	}
	if len(rules) > 0 {
		slog.Info("custom rules loaded", "path", cfg.RulesPath, "rules", len(rules))
	}

	rc := cache.New(cfg.CacheTTL)
	go rc.Run(ctx, cfg.CacheSweepInterval)

	return pipeline.NewService(
		cat,
		query.NewInterpreter(cfg.DefaultOriginCountry, cfg.DefaultDeclaredValue),
		classifier.New(rules...),
		rc,
		cost.NewCalculator(),
	), nil
}

// Advisor returns the optional advisor client; it is disabled when no base
// URL is configured.
func Advisor(cfg config.Config) *advisor.Client {
	adv := advisor.New(cfg)
	if adv.Enabled() {
		slog.Info("advisor enabled", "model", cfg.AdvisorModel)
	}
	return adv
}

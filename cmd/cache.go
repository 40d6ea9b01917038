package cmd

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/lepinkainen/openshelf/internal/cache"
	"github.com/lepinkainen/openshelf/internal/config"
)

func openResponseCache(cfg config.HTTPCacheConfig) (*cache.CacheDB, error) {
	if cfg.DBFile == "" {
		return nil, fmt.Errorf("response cache is disabled (set httpcache.dbfile or --httpcache-db)")
	}
	return cache.NewCacheDB(cfg.DBFile)
}

func invalidateCache(cfg config.HTTPCacheConfig, source string) error {
	table, ok := cache.SourceTables[source]
	if !ok {
		return fmt.Errorf("unknown cache source %q", source)
	}

	db, err := openResponseCache(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	removed, err := db.InvalidateSource(table)
	if err != nil {
		return err
	}
	slog.Info("Invalidated response cache", "path", db.Path(), "source", source, "removed", removed)
	return nil
}

func clearExpiredCache(cfg config.HTTPCacheConfig) error {
	db, err := openResponseCache(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sources := make([]string, 0, len(cache.SourceTables))
	for source := range cache.SourceTables {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		removed, err := db.ClearExpired(cache.SourceTables[source], cfg.TTL)
		if err != nil {
			return err
		}
		slog.Info("Cleared expired responses", "path", db.Path(), "source", source, "removed", removed)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lepinkainen/openshelf/internal/cache"
	"github.com/lepinkainen/openshelf/internal/config"
	"github.com/lepinkainen/openshelf/internal/datastore"
	"github.com/lepinkainen/openshelf/internal/enrich"
	"github.com/lepinkainen/openshelf/internal/openlibrary"
	"github.com/lepinkainen/openshelf/internal/pipeline"
	"github.com/lepinkainen/openshelf/internal/ratelimit"
	"github.com/lepinkainen/openshelf/internal/sink"
)

func enrichBooks(ctx context.Context, cfg config.Config) (err error) {
	in, err := pipeline.LoadInputs(ctx, cfg)
	if err != nil {
		return err
	}

	store, err := datastore.Open(ctx, cfg.StoreDSN)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	slog.Info("Using book store", "dialect", store.Dialect())

	client, closeClient, err := newCatalogClient(cfg)
	if err != nil {
		return err
	}
	defer closeClient()

	var out sink.RecordSink
	if cfg.Output.File != "" {
		out, err = sink.Open(cfg.Output.File, cfg.Output.Delimiter)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := out.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("closing output: %w", closeErr)
			}
		}()
	}

	p := &pipeline.Pipeline{
		Resolver:        enrich.NewResolver(client),
		Cache:           in.Cache,
		Store:           store,
		Sink:            out,
		ContinueOnError: cfg.ContinueOnError,
	}

	stats, runErr := p.Run(ctx, in.Records)

	if cfg.ReportFile != "" {
		if err := pipeline.WriteReport(cfg.ReportFile, stats); err != nil {
			slog.Error("Failed to write run report", "path", cfg.ReportFile, "error", err)
		}
	}

	return runErr
}

// newCatalogClient builds the OpenLibrary client with the optional response
// cache and rate limiter. The returned func releases the cache.
func newCatalogClient(cfg config.Config) (*openlibrary.Client, func(), error) {
	opts := []openlibrary.Option{
		openlibrary.WithBaseURL(cfg.Catalog.BaseURL),
		openlibrary.WithHTTPClient(&http.Client{Timeout: cfg.Catalog.Timeout}),
		openlibrary.WithUserAgent(cfg.Catalog.UserAgent),
	}

	if limiter := ratelimit.New("openlibrary", cfg.Catalog.RequestsPerSecond); limiter != nil {
		slog.Info("Rate limiting catalog requests", "requests_per_second", cfg.Catalog.RequestsPerSecond)
		opts = append(opts, openlibrary.WithRateLimiter(limiter))
	}

	closeFn := func() {}
	if cfg.HTTPCache.DBFile != "" {
		db, err := cache.NewCacheDB(cfg.HTTPCache.DBFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, openlibrary.WithCache(db, cfg.HTTPCache.TTL))
		closeFn = func() { _ = db.Close() }
	}

	return openlibrary.NewClient(opts...), closeFn, nil
}

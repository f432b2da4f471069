package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rsilvagit/tutorfind/internal/cache"
	"github.com/rsilvagit/tutorfind/internal/config"
	"github.com/rsilvagit/tutorfind/internal/httpclient"
	"github.com/rsilvagit/tutorfind/internal/metrics"
	"github.com/rsilvagit/tutorfind/internal/model"
)

var ErrNoListings = errors.New("source: every source failed")

// Source defines the contract every listing data source must satisfy.
type Source interface {
	// Name returns a human-readable identifier for this source.
	Name() string

	// Fetch returns the source's listings, fully materialized.
	Fetch(ctx context.Context) ([]model.Listing, error)
}

// Registry builds the configured sources, in configuration order.
func Registry(cfg config.SourceConfig, client *httpclient.Client) ([]Source, error) {
	sources := make([]Source, 0, len(cfg.Kinds))
	for _, kind := range cfg.Kinds {
		switch kind {
		case "sample":
			sources = append(sources, NewSample())
		case "file":
			sources = append(sources, NewFile(cfg.File))
		case "rest":
			sources = append(sources, NewREST(client, cfg.RESTURL))
		case "html":
			sources = append(sources, NewHTML(client, cfg.HTMLURL))
		default:
			return nil, fmt.Errorf("source: unknown kind %q", kind)
		}
	}
	return sources, nil
}

// Collect fetches every source concurrently. A failing source is logged and
// skipped; Collect only fails when no source succeeded. The result keeps
// source order, drops duplicates by Key and invalid listings, and fills in
// missing IDs.
func Collect(ctx context.Context, sources []Source, log *zap.Logger) ([]model.Listing, error) {
	results := make([][]model.Listing, len(sources))
	failed := make([]bool, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sources {
		g.Go(func() error {
			start := time.Now()
			listings, err := s.Fetch(gctx)
			if err != nil {
				failed[i] = true
				metrics.SourceFetchFailures.WithLabelValues(s.Name()).Inc()
				log.Warn("source failed", zap.String("source", s.Name()), zap.Error(err))
				return nil
			}
			log.Debug("source fetched",
				zap.String("source", s.Name()),
				zap.Int("listings", len(listings)),
				zap.Duration("took", time.Since(start)),
			)
			results[i] = listings
			return nil
		})
	}
	_ = g.Wait()

	if len(sources) > 0 && !slices.Contains(failed, false) {
		return nil, ErrNoListings
	}

	seen := make(map[string]bool)
	unique := make([]model.Listing, 0)
	for i, batch := range results {
		for _, l := range batch {
			if err := l.Validate(); err != nil {
				log.Warn("dropping invalid listing", zap.String("source", sources[i].Name()), zap.Error(err))
				continue
			}
			l.EnsureID()
			key := l.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			unique = append(unique, l)
		}
	}
	return unique, nil
}

// cached serves a source from Redis when a fresh copy exists.
type cached struct {
	inner Source
	cache *cache.Cache
	log   *zap.Logger
}

// Cached wraps s so successful fetches are stored in c and reused until
// they expire. Cache errors fall through to the wrapped source.
func Cached(s Source, c *cache.Cache, log *zap.Logger) Source {
	return &cached{inner: s, cache: c, log: log}
}

func (c *cached) Name() string { return c.inner.Name() }

func (c *cached) Fetch(ctx context.Context) ([]model.Listing, error) {
	listings, ok, err := c.cache.Get(ctx, c.inner.Name(), "")
	if err != nil {
		c.log.Warn("cache read failed", zap.String("source", c.inner.Name()), zap.Error(err))
	}
	if ok {
		c.log.Debug("cache hit", zap.String("source", c.inner.Name()))
		return listings, nil
	}

	listings, err = c.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, c.inner.Name(), "", listings); err != nil {
		c.log.Warn("cache write failed", zap.String("source", c.inner.Name()), zap.Error(err))
	}
	return listings, nil
}

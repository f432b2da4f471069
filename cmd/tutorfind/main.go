package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rsilvagit/tutorfind/internal/cache"
	"github.com/rsilvagit/tutorfind/internal/config"
	"github.com/rsilvagit/tutorfind/internal/httpclient"
	"github.com/rsilvagit/tutorfind/internal/logger"
	"github.com/rsilvagit/tutorfind/internal/model"
	"github.com/rsilvagit/tutorfind/internal/source"
)

// app holds what every subcommand needs once the root command has loaded
// configuration.
type app struct {
	configPath string
	logLevel   string
	timeout    time.Duration

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tutorfind",
		Short: "Find tutors and training centers",
		Long: `tutorfind collects tutor listings from the configured sources and filters
them by free text, gender, location, rating, learning method, course type,
grade and price.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: ./config.yaml or ./configs/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override: debug, info, warn, error")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "Timeout for collecting listings")

	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

// loadCatalog collects listings from every configured source. When Redis is
// configured and reachable, source results are cached and the returned
// client is non-nil; the caller closes it.
func (a *app) loadCatalog(ctx context.Context) ([]model.Listing, *redis.Client, error) {
	client, err := httpclient.New(httpclient.Options{
		ProxyURL:   a.cfg.HTTP.ProxyURL,
		MinDelay:   a.cfg.HTTP.MinDelay,
		MaxDelay:   a.cfg.HTTP.MaxDelay,
		MaxRetries: a.cfg.HTTP.MaxRetries,
		Timeout:    a.cfg.HTTP.Timeout,
		Logger:     a.log,
	})
	if err != nil {
		return nil, nil, err
	}

	sources, err := source.Registry(a.cfg.Source, client)
	if err != nil {
		return nil, nil, err
	}

	var rdb *redis.Client
	if a.cfg.Redis.URL != "" {
		rdb, err = cache.Connect(ctx, a.cfg.Redis.URL)
		if err != nil {
			a.log.Warn("redis unavailable, continuing without cache", zap.Error(err))
			rdb = nil
		} else {
			c := cache.New(rdb, a.cfg.Redis.TTL)
			for i, s := range sources {
				sources[i] = source.Cached(s, c, a.log)
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	listings, err := source.Collect(ctx, sources, a.log)
	if err != nil {
		if rdb != nil {
			rdb.Close()
		}
		return nil, nil, err
	}
	a.log.Info("catalog loaded", zap.Int("listings", len(listings)), zap.Int("sources", len(sources)))
	return listings, rdb, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

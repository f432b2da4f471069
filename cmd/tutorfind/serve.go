package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rsilvagit/tutorfind/internal/cache"
	"github.com/rsilvagit/tutorfind/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the listing API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	return cmd
}

func (a *app) runServe(ctx context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listings, rdb, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	var prefs *cache.Preferences
	if rdb != nil {
		defer rdb.Close()
		prefs = cache.NewPreferences(rdb)
	}

	srv := server.New(listings, server.Options{
		Addr:         addr,
		NearLocation: a.cfg.Search.NearLocation,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		Preferences:  prefs,
		Logger:       a.log,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-malhotra/go-spectra/internal/httpapi"
)

func (a *app) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve FILE...",
		Short: "Serve spectra over a read-only HTTP API",
		Long: "Loads spectrum files, and every spectrum stored in .h5 archives, " +
			"then serves them under /api/spectra until interrupted.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			store, err := a.loadStore(args)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context(), store)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) loadStore(paths []string) (*httpapi.Store, error) {
	store := httpapi.NewStore()
	for _, path := range paths {
		if strings.EqualFold(filepath.Ext(path), ".h5") {
			consumers, err := a.loadH5(path)
			if err != nil {
				return nil, err
			}
			for _, c := range consumers {
				store.Add(c)
			}
			continue
		}
		c, err := a.registry.CreateFromFile(path)
		if err != nil {
			return nil, err
		}
		store.Add(c)
	}
	return store, nil
}

func (a *app) serve(ctx context.Context, store *httpapi.Store) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpapi.NewServer(store, a.log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(a.cfg.Server.Addr, a.cfg.Server.ReadTimeout)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down", zap.Duration("timeout", a.cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

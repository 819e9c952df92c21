package cli

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bangd/api"
	"bangd/live"
	"bangd/static"
	"bangd/syncer"
	"bangd/watch"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var addr, staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the redirect server and web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			var staticFS fs.FS = static.FS
			if staticDir != "" {
				staticFS = os.DirFS(staticDir)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, addr, staticFS)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.addr)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "serve the web UI from this directory instead of the embedded copy")
	return cmd
}

// serve runs the HTTP server, the snapshot watcher and the periodic sync
// until ctx is cancelled or one of them fails.
func (a *app) serve(ctx context.Context, addr string, staticFS fs.FS) error {
	reg, err := a.registry()
	if err != nil {
		return err
	}

	var sy *syncer.Syncer
	if reg.HasRemote() {
		if sy, err = syncer.New(reg, a.log); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.RegisterRoutes(reg, live.NewManager(), sy, staticFS, a.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("bangd listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if a.cfg.Snapshot.Watch {
		w, err := watch.New(a.cfg.Snapshot.Path, func() { reg.Reload() }, a.log)
		if err != nil {
			a.log.Warn("snapshot watcher disabled", zap.Error(err))
		} else {
			g.Go(func() error { return w.Run(ctx) })
		}
	}

	if sy != nil {
		g.Go(func() error { return sy.Run(ctx, a.cfg.Remote.SyncInterval) })
	}

	return g.Wait()
}

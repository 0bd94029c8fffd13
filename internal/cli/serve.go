package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/thoughtgraph/internal/fetch"
	"github.com/lazypower/thoughtgraph/internal/metrics"
	"github.com/lazypower/thoughtgraph/internal/server"
	"github.com/lazypower/thoughtgraph/internal/viewer"
)

var (
	servePort    int
	serveBackend string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the content API and the live graph view",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "content API the view fetches from (default: this server)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger := appConfig, appLogger
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveBackend != "" {
		cfg.Backend.URL = serveBackend
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.NewCollector("thoughtgraph")
	opts, err := viewOptions(cfg, logger, m)
	if err != nil {
		return err
	}
	backend := cfg.BackendURL()

	srv := server.New(db, server.Options{
		Version:     VersionString(),
		Logger:      logger,
		Metrics:     m,
		CORSOrigins: cfg.Server.CORSOrigins,
		UI:          uiFS,
		NewView: func() *viewer.View {
			return viewer.New(fetch.NewClient(backend, cfg.BackendTimeout()), opts)
		},
	})
	defer srv.Close()

	addr := cfg.ListenAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	httpServer := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()
	logger.Info("thoughtgraph serving",
		zap.String("addr", addr),
		zap.String("db", db.Path),
		zap.String("backend", backend))

	// The listener is already accepting, so a self-hosted backend can
	// answer the view's one fetch.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout()+time.Second)
		defer cancel()
		if _, err := srv.MountView(ctx); err != nil {
			logger.Error("graph view unavailable", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	}
	logger.Info("shutting down")

	srv.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

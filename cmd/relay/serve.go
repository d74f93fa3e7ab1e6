package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/verse-reader/speech-relay/internal/buildinfo"
	"github.com/verse-reader/speech-relay/internal/config"
	"github.com/verse-reader/speech-relay/internal/server"
	"github.com/verse-reader/speech-relay/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP relay (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting relay",
		"service", buildinfo.Info.Name,
		"service_slug", buildinfo.Info.Slug,
		"service_version", buildinfo.Version(),
		"listen_addr", cfg.ListenAddr,
		"voice_name", cfg.VoiceName,
		"audio_encoding", cfg.AudioEncoding,
		"simplify_provider", cfg.SimplifyProvider,
	)

	recorder := telemetry.NewRecorder(logger)

	// Bind first so the platform's port check passes while clients initialize.
	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}
	logger.Info("listener bound, port ready", "addr", lis.Addr().String())

	lazy := &server.Lazy{}
	httpServer := &http.Server{
		Handler:           otelhttp.NewHandler(server.Wrap(ctx, cfg, logger, recorder, lazy), buildinfo.Info.Slug),
		ReadHeaderTimeout: cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout * 2,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	logger.Info("HTTP server started (NOT READY while initializing)")

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close client", "error", err)
			}
		}
	}()

	synth, closer, err := newSynthesizer(ctx, cfg, logger)
	if err != nil {
		shutdown(httpServer, logger)
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	simplifier, err := newSimplifier(ctx, cfg, logger)
	if err != nil {
		shutdown(httpServer, logger)
		return err
	}

	store, closer := newStore(ctx, cfg, logger)
	if closer != nil {
		closers = append(closers, closer)
	}

	lazy.Set(server.New(cfg, logger, synth, simplifier, recorder, store).Routes())
	logger.Info("relay ready to serve requests")

	select {
	case err := <-serverErr:
		logger.Error("HTTP server terminated with error", "error", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown requested, stopping HTTP server")
	lazy.Drain()
	shutdown(httpServer, logger)
	logger.Info("relay stopped")
	return nil
}

func shutdown(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful stop timed out, forcing stop", "error", err)
		srv.Close()
	}
}

// license-server is the demo backend for the LicenseCore web UI: it exposes
// validation, hardware id and feature queries over HTTP, with Prometheus
// metrics and JSON logs. The library core itself performs no network I/O.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Vlad-tdk/LicenseCore/internal/config"
	"github.com/Vlad-tdk/LicenseCore/internal/infrastructure"
	"github.com/Vlad-tdk/LicenseCore/internal/license"
	transport "github.com/Vlad-tdk/LicenseCore/internal/transport/http"
)

func main() {
	configPath := flag.String("config", "licensecore.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "license-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.License.Secret == "" {
		return fmt.Errorf("no signing secret configured: set LICENSECORE_LICENSE_SECRET or license.secret_file")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	metricsProvider, err := infrastructure.InitializeMetrics()
	if err != nil {
		return err
	}

	licenseMetrics, err := license.NewMetrics(metricsProvider.Meter)
	if err != nil {
		return err
	}

	manager := license.NewManager(
		[]byte(cfg.License.Secret),
		license.WithHardwareConfig(cfg.HardwareBuilderConfig()),
		license.WithStrictValidation(cfg.License.Strict),
		license.WithLogger(logger),
		license.WithMetrics(licenseMetrics),
	)

	var limiter func(http.Handler) http.Handler
	if cfg.Server.RateLimit.Enabled {
		limiter = transport.RateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Mount("/api/license", transport.NewLicenseHandler(manager, logger).Routes(limiter))
	router.Handle("/metrics", metricsProvider.Handler)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("license server listening",
			slog.String("addr", server.Addr),
			slog.Bool("strict", cfg.License.Strict),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return metricsProvider.Shutdown(ctx)
}

// Package main boots the property service HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fairyhunter13/property-admin-console/internal/config"
	httpapi "github.com/fairyhunter13/property-admin-console/internal/http"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/store"
)

func main() {
	cfg, err := config.Load()
	obs.InitLogger(cfg.LogLevel)
	if err != nil {
		obs.Logger.Error("config_error", "error", err)
		os.Exit(1)
	}
	obs.Logger.Info("service_starting")

	st := store.New()
	if cfg.SeedFile != "" {
		fx, err := st.LoadFixtures(cfg.SeedFile)
		if err != nil {
			obs.Logger.Error("fixtures_error", "error", err)
			os.Exit(1)
		}
		obs.Logger.Info("fixtures_loaded",
			"path", cfg.SeedFile,
			"properties", len(fx.Properties),
			"gallery_images", len(fx.Gallery),
			"comments", len(fx.Comments),
		)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app := httpapi.NewApp(cfg, st, obs.NewMetrics(reg), reg)
	router := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	app.StartShutdown()
	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}

// Command as2d is the AS2 gateway daemon: it loads configuration, opens
// the database, and serves the AS2 receive endpoint plus a Prometheus
// metrics endpoint until interrupted.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/as2gw/gateway/internal/adminapi"
	"github.com/as2gw/gateway/internal/config"
	"github.com/as2gw/gateway/internal/coordinator"
	"github.com/as2gw/gateway/internal/database"
	"github.com/as2gw/gateway/internal/engine"
	"github.com/as2gw/gateway/internal/logging"
	"github.com/as2gw/gateway/internal/metrics"
	"github.com/as2gw/gateway/internal/profile"
	"github.com/as2gw/gateway/internal/secrets"
	"github.com/as2gw/gateway/internal/store"
)

var debugMode = flag.Bool("debug", false, "Enable debug logging")

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		println("Error: failed to load configuration:", err.Error())
		os.Exit(1)
	}

	debug := *debugMode || cfg.Debug
	logging.Configure(cfg.LogLevel, debug)
	log := logging.WithComponent("as2d")

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	db.StartCheckpointRoutine(ctx)

	profileStore := profile.NewStore(db.DB, cfg.DataDir)
	artifactStore := store.NewStore(db.DB, cfg.DataDir)
	secretStore, err := secrets.NewStore(db.DB, cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open secrets store")
	}

	eng := engine.New(artifactStore, profileStore, secretStore)

	coord := coordinator.New(artifactStore, profileStore, cfg.AsyncMDNWait, cfg.MaxRetries, cfg.MaxArchDays)
	coord.Start(ctx)
	defer coord.Stop()

	admin := adminapi.New(artifactStore)

	mux := http.NewServeMux()
	mux.Handle(cfg.URI, eng.Handler())
	mux.Handle("/admin/", admin.Handler())

	httpServer := &http.Server{
		Addr:              cfg.Host + ":" + portString(cfg.Port),
		Handler:           mux,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("uri", cfg.URI).Msg("as2 gateway listening")
		var serveErr error
		if cfg.SSLCertificate != "" && cfg.SSLPrivateKey != "" {
			serveErr = httpServer.ListenAndServeTLS(cfg.SSLCertificate, cfg.SSLPrivateKey)
		} else {
			serveErr = httpServer.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			log.Fatal().Err(serveErr).Msg("as2 http server failed")
		}
	}()

	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		if err := metrics.StartServer(cfg.MetricsAddr); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during http server shutdown")
	}
}

func portString(port int) string {
	if port <= 0 {
		return "8080"
	}
	return itoa(port)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

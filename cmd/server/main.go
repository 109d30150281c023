package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/adsight/adsight/internal/config"
	"github.com/adsight/adsight/internal/httpx"
	"github.com/adsight/adsight/internal/service"
	"github.com/adsight/adsight/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	var src service.RowSource
	var pinger httpx.Pinger
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(store.PostgresConfig{
			DSN:             cfg.DatabaseURL,
			Timezone:        cfg.ReportTimezone,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: 30 * time.Minute,
		}, logger)
		if err != nil {
			logger.Error("postgres error", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer pg.Close()
		src, pinger = pg, pg
	} else {
		logger.Warn("DATABASE_URL not set, serving empty in-memory data")
		mem := store.NewMemory()
		src, pinger = mem, mem
	}

	svc := service.New(src, logger)
	r := httpx.NewRouter(logger, svc, pinger, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTPTimeout,
	}

	logger.Info("starting server", slog.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

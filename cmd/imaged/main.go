package main

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Kalpeny/edgeonepagesimg/pkg/api"
	"github.com/Kalpeny/edgeonepagesimg/pkg/clients/telegram"
	"github.com/Kalpeny/edgeonepagesimg/pkg/config"
	"github.com/Kalpeny/edgeonepagesimg/pkg/gallery"
	"github.com/Kalpeny/edgeonepagesimg/pkg/ingest"
	"github.com/Kalpeny/edgeonepagesimg/pkg/logging"
	"github.com/Kalpeny/edgeonepagesimg/pkg/metrics"
	"github.com/Kalpeny/edgeonepagesimg/pkg/middleware"
	"github.com/Kalpeny/edgeonepagesimg/pkg/store"

	zlog "github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config failed: %v", err)
	}
	logging.Setup(cfg.Debug)

	reg := metrics.NewRegistry()

	st, err := buildStore(cfg, reg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("store init failed")
	}

	var bot *telegram.Client
	if cfg.BotToken != "" {
		bot, err = telegram.NewClient(cfg.BotToken)
		if err != nil {
			zlog.Fatal().Err(err).Msg("telegram client init failed")
		}
	} else {
		zlog.Info().Msg("TG_BOT_TOKEN not set, telegram ingestion disabled")
	}

	server := echo.New()
	server.HideBanner = true
	server.Use(echomw.Recover())
	server.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	server.Use(middleware.SecurityHeaders())
	server.Use(middleware.RequestLogger(reg))

	handlers := api.NewHandlers(
		ingest.New(st, reg),
		gallery.New(st, reg),
		st,
		bot,
		cfg.WebhookSecret,
		reg,
	)
	handlers.Register(server, cfg.APIKey)

	if err := server.Start(cfg.Address); err != nil {
		zlog.Fatal().Err(err).Msg("server failed")
	}
}

// buildStore picks the directory-backed store when DATA_DIR is set and
// falls back to the in-memory one otherwise.
func buildStore(cfg config.Config, reg *metrics.Registry) (store.Store, error) {
	if cfg.DataDir != "" {
		zlog.Info().Str("dir", cfg.DataDir).Msg("using directory-backed store")
		return store.NewDir(cfg.DataDir, reg)
	}
	zlog.Warn().Msg("DATA_DIR not set, images are stored in memory only")
	return store.NewMemory(reg), nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/gutterguard/inventory/internal/app"
	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/sheets"
	"github.com/gutterguard/inventory/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.SetFormat(cfg.Server.LogFormat)
	logger.SetLevel(cfg.Server.LogLevel)

	ctx := context.Background()
	sheetsService, err := sheets.NewServiceFromFile(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialise Google Sheets service")
	}

	inv, err := app.New(ctx, cfg, nil)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialise inventory store")
	}
	defer inv.Close()

	r := mux.NewRouter()
	sheets.NewHandler(sheets.NewMirror(inv.Store, sheetsService, nil)).RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Sheets.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Sheets.Port).Msg("Starting sheets mirror")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start sheets mirror")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Sheets mirror forced to shutdown")
	}
}

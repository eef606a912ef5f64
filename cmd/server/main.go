package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"codeduel/internal/app"
	"codeduel/internal/config"
	"codeduel/internal/session"
	"codeduel/internal/transport/rest"
	"codeduel/internal/transport/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise dependencies")
	}
	defer a.Close(context.Background())

	hub := ws.NewHub()
	defer hub.Close()

	coordinator := session.NewCoordinator(session.Config{
		TickInterval:     cfg.TickInterval,
		PersistTimeout:   cfg.PersistTimeout,
		DefaultTimeLimit: cfg.DefaultTimeLimit,
	}, a.RoomService, a.MatchService, hub, nil)

	go coordinator.RunReaper(ctx, cfg.SessionIdleTimeout)

	wsHandler := ws.NewHandler(hub, coordinator, a.AuthService, cfg.AllowedOrigin, cfg.PersistTimeout)

	router := rest.NewRouter(&rest.Container{
		AuthService:    a.AuthService,
		Rooms:          a.RoomService,
		Sessions:       coordinator,
		Matches:        a.MatchService,
		WSHandler:      wsHandler.ServeWS,
		AllowedOrigins: cfg.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

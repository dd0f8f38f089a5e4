package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

func main() {
	config := MustLoadConfig()

	store := NewStore()
	store.StartSweep(config.SweepInterval, config.IdleTimeout)
	hub := NewHub(store, NewRejoinJWT(config.JwtSecret))

	server := &http.Server{
		Addr:    ":" + config.Port,
		Handler: NewHTTPServer(hub),
	}

	go func() {
		LogStartedServer(config.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	LogStoppingServer()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	store.Stop()
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/botorabi/Meet4Eat-sub002/internal/config"
	"github.com/botorabi/Meet4Eat-sub002/internal/otelutil"
	"github.com/botorabi/Meet4Eat-sub002/internal/types"
)

func main() {
	cfg := config.Load()

	log := newLogger(cfg)
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := otelutil.Init(); err != nil {
		log.Debug().Err(err).Msg("tracing disabled")
	}
	defer otelutil.Flush()

	s := NewServer(cfg, log)
	s.Start()
	defer s.Stop()

	if cfg.IsDevelopment() {
		seedDevUsers(s, log)
	}

	server := &http.Server{Addr: cfg.Addr, Handler: s.engine}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Msg("starting realtime server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.IsDevelopment() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// seedDevUsers provisions a couple of accounts so a local client can
// connect without the full application around the core. The tokens are
// printed once at startup.
func seedDevUsers(s *Server, log zerolog.Logger) {
	alice := types.User{ID: "1", Name: "Alice", Active: true}
	bob := types.User{ID: "2", Name: "Bob", Active: true}
	s.mem.PutUser(alice)
	s.mem.PutUser(bob)
	s.mem.PutEvent("100", alice.ID, bob.ID)
	s.mem.SetRelatives(alice.ID, bob.ID)
	s.mem.SetRelatives(bob.ID, alice.ID)

	log.Info().
		Str("alice_token", s.mem.IssueToken(alice.ID)).
		Str("bob_token", s.mem.IssueToken(bob.ID)).
		Msg("development users seeded")
}

// Command anonchat runs the presence-aware chat server: HTTP credential
// endpoints plus the WebSocket messaging core, on a single port.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/anonchat/server/config"
	"github.com/anonchat/server/src/auth"
	"github.com/anonchat/server/src/hub"
	"github.com/anonchat/server/src/router"
	"github.com/anonchat/server/src/session"
	"github.com/anonchat/server/src/web"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	cfg := config.FromEnv()

	store, err := auth.OpenFileStore(cfg.UsersFile)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.UsersFile).Msg("cannot open users file")
	}
	authSvc := auth.NewService(store, auth.NewPasswordHasher(), logger)

	sessions := openSessions(logger)
	defer sessions.Close()

	h := hub.New(logger)
	go h.Run()
	defer h.Stop()

	router.New(h, logger)

	srv := web.NewServer(cfg, authSvc, sessions, h, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(":" + cfg.Port)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("server failed")
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		if err := srv.Shutdown(); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}
}

// openSessions tries Redis first and falls back to the in-memory store when
// it is unreachable.
func openSessions(logger zerolog.Logger) session.Store {
	cfg := session.RedisConfigFromEnv()
	rs := session.NewRedisStore(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rs.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, using in-memory sessions")
		rs.Close()
		return session.NewMemoryStore(cfg.TTL)
	}
	return rs
}

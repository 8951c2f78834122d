package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cboderot1/turnos2/internal/config"
	"github.com/cboderot1/turnos2/internal/database"
	"github.com/cboderot1/turnos2/internal/dispatch"
	"github.com/cboderot1/turnos2/internal/events"
	"github.com/cboderot1/turnos2/internal/repository/postgres"
	"github.com/cboderot1/turnos2/internal/router"
	"github.com/cboderot1/turnos2/pkg/logger"
)

func main() {
	// config + logger
	cfg := config.Load()
	l := logger.New(cfg.Env)

	// db
	pool, err := database.Open(context.Background(), cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()

	// dispatch core
	opts := []dispatch.Option{
		dispatch.WithArchiver(postgres.NewArchiveRepo(pool)),
		dispatch.WithAutoDispatch(cfg.AutoDispatch),
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		opts = append(opts, dispatch.WithPublisher(events.NewStream(rdb, cfg.EventStream)))
		l.Info().Str("stream", cfg.EventStream).Msg("event publishing enabled")
	}
	core := dispatch.New(l, opts...)

	// http
	users := postgres.NewUserRepo(pool)
	r := router.New(l, core, users, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Info().Msg("shutdown complete")
}

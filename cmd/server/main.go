package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/auth"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/cache"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/config"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/handler"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/infra"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/repository"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/router"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/storage"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/tenancy"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	pool, err := infra.NewPool(cfg.DatabaseURL, infra.PoolConfig{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	registry := tenancy.NewRegistry(pool)
	defer registry.Close()

	// Redis is optional: without it the cache is bypassed and jobs are not queued.
	var rdb redis.UniversalClient
	client, err := infra.NewRedis(cfg.RedisURL)
	switch {
	case client == nil:
		log.Warn().Err(err).Msg("redis disabled")
	case err != nil:
		log.Warn().Err(err).Msg("redis unreachable, starting degraded")
		rdb = client
	default:
		rdb = client
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cache.New(rdb, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	go c.Watch(ctx, 10*time.Second)

	blobs, err := storage.NewLocalStore(cfg.StoragePath, cfg.PublicBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare blob storage")
	}

	creds := auth.NewCredentials(cfg.JWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour, cfg.BcryptCost)
	dispatcher := worker.NewDispatcher(rdb)

	svcs, tiendaRepo := router.NewServices(router.Deps{
		Registry:   registry,
		Cache:      c,
		Blobs:      blobs,
		Creds:      creds,
		Dispatcher: dispatcher,
	})

	// Worker handlers are wired here (composition root) so that the pool has
	// access to the repositories and the mailer.
	mailer := infra.NewMailer(cfg)
	if !mailer.Enabled() {
		log.Warn().Msg("SMTP not configured: order emails will fail and land in the DLQ")
	}
	workers := worker.NewPool(rdb, map[string]worker.Handler{
		worker.JobPedidoConfirmacion: worker.NewEmailWorker(repository.NewPedidoRepository(registry), tiendaRepo, mailer),
	})
	workers.Start(ctx, cfg.WorkerPoolSize)

	r := router.New(cfg, creds, svcs, router.Options{
		Health:       handler.Health(registry, c),
		TenantExists: router.TenantExists(tiendaRepo),
		TenantActive: router.TenantActive(tiendaRepo),
		UploadsDir:   blobs.Root(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("tiendas API listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

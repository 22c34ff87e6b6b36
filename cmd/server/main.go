// Command server runs the CampusPulse complaint API.
//
// @title           CampusPulse Backend API
// @version         1.0
// @description     Classifies student complaints with a language model and stores them for the admin dashboard.
// @BasePath        /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/campuspulse-backend/internal/classify"
	"github.com/tbourn/campuspulse-backend/internal/config"
	httpapi "github.com/tbourn/campuspulse-backend/internal/http"
	"github.com/tbourn/campuspulse-backend/internal/observability"
	"github.com/tbourn/campuspulse-backend/internal/repo"
	"github.com/tbourn/campuspulse-backend/internal/services"
	"github.com/tbourn/campuspulse-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver,
		observability.StoreDriverKey.String(string(cfg.Store.Driver)))
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store, err := repo.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}()

	idem, closeIdem, err := openIdempotency(ctx, cfg, store)
	if err != nil {
		return fmt.Errorf("idempotency: %w", err)
	}
	defer closeIdem()

	svc := services.NewComplaintService(classify.New(newGenerator(ctx, cfg.Gemini), cfg.Gemini.Timeout), store)
	svc.MaxDescriptionRunes = cfg.MaxDescriptionRunes

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Complaints: svc, Idempotency: idem}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", string(cfg.Store.Driver)).
			Str("idempotency", string(cfg.Idempotency.Backend)).
			Str("version", ver).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// newGenerator returns the Gemini client, or a generator that always fails
// when no key is configured so every complaint is stored with the fallback.
func newGenerator(ctx context.Context, cfg config.GeminiConfig) classify.Generator {
	gen, err := classify.NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	if err != nil {
		log.Warn().Err(err).Msg("gemini unavailable, complaints will use the fallback classification")
		return classify.Unavailable{Err: err}
	}
	log.Info().Str("model", gen.Model()).Msg("gemini classifier ready")
	return gen
}

// openIdempotency builds the configured idempotency store. The GORM backend
// shares the SQLite database of the complaint store.
func openIdempotency(ctx context.Context, cfg config.Config, store repo.Store) (repo.IdempotencyStore, func(), error) {
	noop := func() {}
	switch cfg.Idempotency.Backend {
	case config.IdempotencyGorm:
		sg, ok := store.(*repo.SQLGateway)
		if !ok {
			return nil, noop, errors.New("gorm idempotency needs the sqlite store")
		}
		return repo.NewGormIdempotency(sg.DB()), noop, nil
	case config.IdempotencyRedis:
		rdb, err := repo.OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, noop, err
		}
		return repo.NewRedisIdempotency(rdb), func() { _ = rdb.Close() }, nil
	default:
		return repo.NoIdempotency{}, noop, nil
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/config"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/database"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/handler"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/logging"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/metrics"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/middleware"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/queue"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/repository"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/router"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/service"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	redisCfg, err := config.LoadRedisConfig()
	if err != nil {
		return fmt.Errorf("redis config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		log.Warn("redis unreachable, rate limiting and response cache disabled", "addr", redisCfg.Addr)
	} else {
		defer rdb.Close()
	}

	var db *sql.DB
	if cfg.UserStore == config.StoreMySQL || cfg.RevocationStore == config.StoreMySQL {
		db, err = database.Open(cfg.DB)
		if err != nil {
			return fmt.Errorf("mysql: %w", err)
		}
		defer db.Close()
	}

	store, err := newCredentialStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	revocations, err := newRevocationRegistry(ctx, cfg, db, rdb)
	if err != nil {
		return err
	}
	log.Info("stores ready", "user_store", cfg.UserStore, "revocation_store", cfg.RevocationStore)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.Events.Enabled {
		events = queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue, log)
		if cfg.Events.AuditConsumer {
			consumer := queue.NewAuditConsumer(cfg.Events.URL, cfg.Events.Queue, cfg.Events.AuditLogPath, log)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("audit consumer stopped", "err", err)
				}
			}()
		}
	}

	m := metrics.New()
	sessions := service.NewSessionManager(service.Options{
		Store:       store,
		Revocations: revocations,
		Codec:       utils.NewTokenCodec(cfg.JWTSecret, nil),
		Hasher:      utils.BcryptHasher{Cost: cfg.BcryptCost},
		Policy: service.TokenPolicy{
			AccessTTL:   cfg.AccessTTL(),
			RefreshTTL:  cfg.RefreshTTL(),
			RememberTTL: cfg.RememberMeTTL(),
		},
		Events:  events,
		Metrics: m,
		Log:     log,
	})

	e := echo.New()
	router.Setup(e, cfg, log)
	router.RegisterRoutes(e, cfg.APIPrefix, handler.NewSystemHandler(cfg), m,
		middleware.NewRedisCache(cacheCfg, rdb, log))
	router.RegisterAuth(e, cfg.APIPrefix, handler.NewAuthHandler(sessions, cfg.Cookie),
		middleware.RequireSession(sessions, cfg.Cookie.AccessName),
		middleware.NewTokenBucket(rlCfg, rdb, log))

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr(), "env", cfg.Env)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	sessions.Wait()
	return nil
}

func newCredentialStore(ctx context.Context, cfg config.Config, db *sql.DB) (repository.CredentialStore, error) {
	if cfg.UserStore != config.StoreMySQL {
		return repository.NewMemoryStore(), nil
	}
	users := repository.NewUserRepo(db, cfg.DB.Timeout)
	if err := users.Migrate(ctx); err != nil {
		return nil, err
	}
	return users, nil
}

func newRevocationRegistry(ctx context.Context, cfg config.Config, db *sql.DB, rdb *redis.Client) (repository.RevocationRegistry, error) {
	switch cfg.RevocationStore {
	case config.StoreRedis:
		if rdb == nil {
			return nil, errors.New("REVOCATION_STORE=redis but redis is unreachable")
		}
		return repository.NewRedisRevocations(rdb, ""), nil
	case config.StoreMySQL:
		tokens := repository.NewTokenRepo(db, cfg.DB.Timeout)
		if err := tokens.Migrate(ctx); err != nil {
			return nil, err
		}
		return tokens, nil
	default:
		return repository.NewMemoryRevocations(), nil
	}
}

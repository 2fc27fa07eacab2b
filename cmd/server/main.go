// @title        Identity Service API
// @version      1.0
// @description  Account registration, JWT authentication and role-based access control.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
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

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/api"
	"github.com/99minutos/identity-service/internal/api/handler"
	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/core/service"
	"github.com/99minutos/identity-service/internal/infrastructure/config"
	"github.com/99minutos/identity-service/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/identity-service/internal/infrastructure/db/mongo"
	pgstore "github.com/99minutos/identity-service/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/identity-service/internal/infrastructure/db/redis"
	"github.com/99minutos/identity-service/internal/infrastructure/queue"
	"github.com/99minutos/identity-service/internal/infrastructure/security"
	"github.com/99minutos/identity-service/pkg/logger"
)

const shutdownTimeout = 20 * time.Second

// stores is the credential store selected by STORE_DRIVER.
type stores struct {
	users ports.UserRepository
	roles ports.RoleRepository
	ping  handler.Checker
	close func(context.Context)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
		Env:    cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		st.close(closeCtx)
	}()

	checks := map[string]handler.Checker{cfg.StoreDriver: st.ping}

	// --- Login rate limiting (optional) ---
	var limiter ports.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter = redisstore.NewLoginLimiter(rdb, redisstore.LimiterConfig{
			Capacity:       cfg.Redis.LoginBurst,
			RefillTokens:   cfg.Redis.LoginRefill,
			RefillInterval: cfg.Redis.LoginRefillInterval,
		})
		checks["redis"] = redisstore.Checker(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login rate limiting enabled")
	}

	// --- Account events ---
	var publisher ports.EventPublisher = queue.NewLogPublisher(log)
	if cfg.AMQP.URL != "" {
		amqpPub, err := queue.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return err
		}
		defer amqpPub.Close()
		publisher = amqpPub
		checks["amqp"] = amqpPub.Ping
		log.Info().Str("queue", cfg.AMQP.Queue).Msg("publishing account events to amqp")
	}

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.AMQP.Workers, publisher, log)
	dispatcher.Start(dispatchCtx)
	defer func() {
		stopDispatch()
		dispatcher.Wait()
	}()

	// --- Security primitives ---
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	codec := security.NewJWTCodec(cfg.Auth.JWTSecret, security.WithIssuer(cfg.Auth.Issuer))

	// --- Seed data ---
	boot := service.NewBootstrapper(st.users, st.roles, hasher, log)
	if err := boot.SeedRoles(ctx); err != nil {
		return err
	}
	if _, err := boot.EnsureAdmin(ctx, service.AdminAccount{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}); err != nil {
		return err
	}

	// --- Services ---
	issuer := service.NewTokenIssuer(codec, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	authService := service.NewAuthService(service.AuthDeps{
		Users:     st.users,
		Roles:     st.roles,
		Hasher:    hasher,
		Codec:     codec,
		Authn:     service.NewAuthenticator(st.users, hasher, cfg.Auth.RejectInactive),
		Issuer:    issuer,
		Refresher: service.NewTokenRefresher(codec, st.users, issuer, cfg.Auth.RejectInactive),
		Events:    dispatcher,
	}, log)
	userService := service.NewUserService(st.users, hasher, log)

	e := api.NewRouter(api.RouterDeps{
		Log:          log,
		Auth:         authService,
		Users:        userService,
		Codec:        codec,
		LoginLimiter: limiter,
		Checks:       checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("identity service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, err
		}
		users := mongostore.NewUserRepository(db)
		roles := mongostore.NewRoleRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		if err := roles.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongodb store")
		return &stores{
			users: users,
			roles: roles,
			ping:  func(ctx context.Context) error { return mongostore.Ping(ctx, client) },
			close: func(ctx context.Context) { _ = client.Disconnect(ctx) },
		}, nil

	case config.StorePostgres:
		pool, err := pgstore.Connect(ctx, pgstore.Config{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, err
		}
		if err := pgstore.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("using postgres store")
		return &stores{
			users: pgstore.NewUserRepository(pool),
			roles: pgstore.NewRoleRepository(pool),
			ping:  pool.Ping,
			close: func(context.Context) { pool.Close() },
		}, nil

	case config.StoreMemory:
		users := memory.NewUserStore()
		log.Warn().Msg("using in-memory store, accounts are lost on restart")
		return &stores{
			users: users,
			roles: memory.NewRoleStore(),
			ping:  users.Ping,
			close: func(context.Context) {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

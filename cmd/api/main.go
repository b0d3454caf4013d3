// @title           Clinic API
// @version         1.0
// @description     Authentication and role-based access control for the clinic platform.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/proyectoveris/clinic-api/docs"
	"github.com/proyectoveris/clinic-api/internal/api"
	"github.com/proyectoveris/clinic-api/internal/api/metrics"
	"github.com/proyectoveris/clinic-api/internal/api/middleware"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
	"github.com/proyectoveris/clinic-api/internal/core/service"
	"github.com/proyectoveris/clinic-api/internal/infrastructure/db/redis"
	"github.com/proyectoveris/clinic-api/internal/infrastructure/http/handlers"
	"github.com/proyectoveris/clinic-api/internal/pkg/config"
	"github.com/proyectoveris/clinic-api/internal/pkg/password"
	"github.com/proyectoveris/clinic-api/internal/pkg/token"
	"github.com/proyectoveris/clinic-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	algorithm, err := password.ParseAlgorithm(cfg.Auth.PasswordAlgorithm)
	if err != nil {
		return err
	}
	hasher := password.New(
		password.WithAlgorithm(algorithm),
		password.WithBcryptCost(cfg.Auth.BcryptCost),
		password.WithObserver(metrics.ObservePasswordHash),
	)

	tokens, err := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, token.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg, logger.Component("store"))
	if err != nil {
		return err
	}
	defer st.close()

	err = service.EnsureBootstrapAdmin(ctx, st.users, hasher, service.BootstrapAdmin{
		Password: cfg.Bootstrap.Password,
		Name:     cfg.Bootstrap.Name,
		Email:    cfg.Bootstrap.Email,
	}, logger.Component("bootstrap"))
	if err != nil {
		return err
	}

	readiness := map[string]handlers.Pinger{cfg.Store.Driver: st.pinger}

	var limiter ports.RateLimiter
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		limiter = redis.NewRateLimiter(client)
		readiness["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login rate limiter backed by redis")
	} else {
		mem := middleware.NewMemoryRateLimiter()
		defer mem.Close()
		limiter = mem
	}

	authLog := logger.Component("auth")
	e := api.NewRouter(api.Dependencies{
		Log:         logger.Component("http"),
		Tokens:      tokens,
		TokenTTL:    cfg.Auth.TokenTTL,
		Auth:        service.NewAuthService(st.users, hasher, tokens, authLog, service.WithAdminSignup(cfg.Auth.AllowAdminSignup)),
		Users:       service.NewUserService(st.users, hasher, logger.Component("users")),
		Specialties: service.NewSpecialtyService(st.specialties, logger.Component("specialties")),
		Limiter:     limiter,
		LoginLimit:  cfg.RateLimit.LoginLimit,
		LoginWindow: cfg.RateLimit.LoginWindow,
		Readiness:   readiness,
		Swagger:     cfg.Swagger,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("api server starting")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
		log.Info().Msg("api server stopped")
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

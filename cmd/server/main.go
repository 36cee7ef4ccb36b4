package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"mrchooks/backend/internal/cache"
	"mrchooks/backend/internal/config"
	"mrchooks/backend/internal/httpapi"
	"mrchooks/backend/internal/logging"
	"mrchooks/backend/internal/service"
	"mrchooks/backend/internal/store/sqlstore"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := validateSecurityConfig(cfg); err != nil {
		logging.Fatal().Err(err).Msg("invalid security configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 2)

	repo, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database unavailable")
	}
	closers = append(closers, repo.Close)
	logging.Info().Str("driver", repo.Driver()).Msg("repository ready")

	var catalogCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.BreakerSettings{})
		if err := redisCache.Ping(ctx); err != nil {
			logging.Warn().Err(err).Msg("redis unavailable, using noop cache")
			_ = redisCache.Close()
		} else {
			catalogCache = redisCache
			closers = append(closers, redisCache.Close)
			logging.Info().Str("addr", cfg.RedisAddr).Msg("cache: redis")
		}
	} else {
		logging.Info().Msg("cache: noop")
	}

	maxDiscount := cfg.MaxDiscountAmount()
	svc := service.New(repo, catalogCache, service.Options{
		Location:    cfg.Location(),
		MaxDiscount: &maxDiscount,
		CacheTTL:    cfg.CacheTTL(),
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), repo)
	if err := auth.SeedUsers(ctx, cfg.SeedAdminPassword, cfg.SeedEmployeePassword); err != nil {
		logging.Fatal().Err(err).Msg("seed user accounts")
	}
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		LoginRateLimit: cfg.LoginRateLimit,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", cfg.Address()).Str("timezone", cfg.Timezone).Msg("Mr. Chooks backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown error")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logging.Error().Err(err).Msg("close error")
		}
	}

	logging.Info().Msg("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	seeds := map[string]string{
		"SEED_ADMIN_PASSWORD":    cfg.SeedAdminPassword,
		"SEED_EMPLOYEE_PASSWORD": cfg.SeedEmployeePassword,
	}
	for name, password := range seeds {
		if password == "" {
			continue
		}
		if err := validatePasswordStrength(password); err != nil {
			return fmt.Errorf("%s is too weak: %w", name, err)
		}
	}
	return nil
}

// validatePasswordStrength rejects short passwords, a single repeated
// character, straight character runs and a known-weak list.
func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("at least 8 characters required")
	}
	known := map[string]bool{
		"password": true, "password1": true, "12345678": true, "123456789": true,
		"admin123": true, "admin1234": true, "employee": true, "employee123": true,
		"qwertyui": true, "mrchooks": true, "mrchooks123": true, "changeme": true,
	}
	if known[strings.ToLower(password)] {
		return fmt.Errorf("common password not allowed")
	}

	allSame := true
	for i := 1; i < len(password); i++ {
		if password[i] != password[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("repeated-character password not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(password); i++ {
		diff := int(password[i]) - int(password[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential password not allowed")
	}
	return nil
}

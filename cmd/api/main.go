package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/cookie"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/health"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/identity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/server"
	sessionrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/session/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/response"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	cfg, err := config.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}
	if cfg.DevSecrets {
		sugar.Warn("token secrets not set; using insecure development secrets")
	}
	sugar.Infow("starting service-auth-go", "env", cfg.Env, "port", cfg.Port)

	sqlDB, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, sqlDB); err != nil {
		sugar.Fatalf("db migrate: %v", err)
	}
	db := sqlx.NewDb(sqlDB, "postgres")

	users := userrepo.NewUserRepo(db)
	sessions := sessionrepo.NewSessionRepo(db)
	issuer := token.NewIssuer(token.Config{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	provider := identity.NewLocalProvider(users, sessions, identity.NewSQLTx(db), identity.BcryptHasher{Cost: cfg.BcryptCost}, cfg.SessionTTL, sugar)
	cookies := cookie.NewWriter(cookie.MaxAges{
		Access:  cfg.AccessCookieMaxAge,
		Refresh: cfg.RefreshCookieMaxAge,
		Session: cfg.SessionCookieMaxAge,
	})
	errs := response.NewErrorWriter(sugar, !cfg.IsProduction())

	handler := router.RegisterRoutes(router.Deps{
		Logger:         sugar,
		AllowedOrigins: cfg.AllowedOrigins,
		Limits:         router.Limits{Window: cfg.RateWindow, API: cfg.APIRateLimit, Auth: cfg.AuthRateLimit},
		Auth:           auth.NewHandler(auth.NewService(provider, users, sessions, issuer, sugar), cookies, errs, sugar),
		Gate:           auth.NewGate(issuer, errs),
		Users:          user.NewHandler(user.NewUserService(users), errs, sugar),
		Health:         health.NewHandler(db, sugar),
	})

	srv := server.New(cfg.Addr(), handler, sugar, cfg.ShutdownTimeout)
	errc, err := srv.Start()
	if err != nil {
		sugar.Fatalf("http server: %v", err)
	}

	select {
	case <-ctx.Done():
		sugar.Info("shutting down")
	case err := <-errc:
		if err != nil {
			sugar.Errorw("http server failed", "err", err)
		}
	}

	if err := srv.Stop(context.Background()); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/internal/config"
	"github.com/Skotchmaster/auth_service/internal/events"
	"github.com/Skotchmaster/auth_service/internal/httpserver"
	"github.com/Skotchmaster/auth_service/internal/keys"
	"github.com/Skotchmaster/auth_service/internal/lifecycle"
	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/middleware"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/search"
	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/tokens"
	"github.com/Skotchmaster/auth_service/pkg/db"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

const shutdownGrace = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), config.Load())
		},
	}
}

func publisher(ctx context.Context, l *slog.Logger, brokers []string) events.Publisher {
	if len(brokers) == 0 {
		l.Info("kafka_disabled")
		return events.Nop{}
	}
	if err := events.EnsureTopics(ctx, brokers[0], events.TopicUsers, events.TopicTenants); err != nil {
		l.Warn("kafka_topics_failed", "error", err)
	}
	prod, err := events.NewProducer(brokers)
	if err != nil {
		l.Warn("kafka_producer_failed", "error", err)
		return events.Nop{}
	}
	return prod
}

func userIndex(ctx context.Context, l *slog.Logger, cfg config.Config) service.UserIndex {
	if cfg.ESURL == "" {
		l.Info("es_disabled")
		return nil
	}
	es, err := search.NewClient(ctx, l, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		l.Warn("es_unavailable", "error", err)
		return nil
	}
	return search.NewUserIndex(es, cfg.ESIndex)
}

func serve(ctx context.Context, cfg config.Config) error {
	l := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	ctx = logging.IntoContext(ctx, l)

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmpty(string(cfg.RefreshSecret), "REFRESH_TOKEN_SECRET")

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err == nil && cfg.AutoMigrate {
		err = db.Migrate(initCtx, gdb, cfg.DBDriver, cfg.DatabaseURL)
	}
	cancel()
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer db.Close(gdb)

	kp := keys.NewProvider(cfg.PrivateKeyPath, cfg.PrivateKeyPEM, string(cfg.RefreshSecret))
	if _, err := kp.PrivateKey(ctx); err != nil {
		l.Warn("private_key_unavailable", "path", cfg.PrivateKeyPath, "error", err)
	}

	pub := publisher(ctx, l, cfg.KafkaBrokers)
	defer pub.Close()
	idx := userIndex(ctx, l, cfg)

	r := repo.New(gdb)
	m := metrics.New()
	state := lifecycle.NewState()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Users:   r,
				Ledger:  r,
				Tokens:  tokens.NewIssuer(kp, r, cfg.Issuer),
				Events:  pub,
				Index:   idx,
				Metrics: m,
			},
			Cookies: httpserver.CookieConfig{Secure: cfg.CookieSecure},
		},
		UsersHandler: &httpserver.UsersHTTP{
			Svc: &service.UserService{Users: r, Tenants: r, Events: pub, Index: idx, Metrics: m},
		},
		TenantHandler: &httpserver.TenantsHTTP{
			Svc: &service.TenantService{Tenants: r, Events: pub, Metrics: m},
		},
		JWKSHandler: &httpserver.JWKSHTTP{Keys: kp},
		Health:      &httpserver.HealthHTTP{State: state, Ping: pinger(gdb)},
		Gate: &middleware.Auth{
			Verifier: tokens.NewVerifier(kp, cfg.Issuer),
			Ledger:   r,
			Metrics:  m,
		},
		State:   state,
		Metrics: m,
		Logger:  l,
	})

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go (&service.Janitor{Ledger: r, Every: cfg.JanitorEvery, Metrics: m}).Run(janitorCtx)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	errCh := make(chan error, 1)
	go func() {
		l.Info("http_listen", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("echo start: %w", err)
	case <-ctx.Done():
	}

	l.Info("shutdown_started", "window", cfg.ShutdownWindow)
	// ctx is done by now; the drain window needs a live parent.
	err = lifecycle.Drain(context.WithoutCancel(ctx), state, cfg.ShutdownWindow, shutdownGrace, e.Shutdown)
	if err != nil {
		l.Error("echo_shutdown_failed", "error", err)
		return err
	}
	l.Info("shutdown_complete")
	return nil
}

func pinger(gdb *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

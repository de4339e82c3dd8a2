package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ledgerbook/portal/internal/db"
	"github.com/ledgerbook/portal/internal/handlers"
	"github.com/ledgerbook/portal/internal/logger"
	"github.com/ledgerbook/portal/internal/platform"
	"github.com/ledgerbook/portal/internal/service/confirmation"
	"github.com/ledgerbook/portal/internal/session"
	"github.com/ledgerbook/portal/internal/session/postgres"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	sweeper *session.Sweeper
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	secureCookies := c.Environment == logger.EnvProduction

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Initialize session storage
	// Without a database the portal keeps sessions in memory: fine for local
	// development, every sign-in is lost on restart
	var sessions session.Store
	var tokens session.TokenLog

	switch c.DatabaseDSN {
	case "":
		logger.Warn("No database configured, keeping sessions in memory")
		sessions = session.NewMemoryStore(session.DefaultTTL)
		tokens = session.NewMemoryTokenLog()
	default:
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		sessions = postgres.NewStore(pool, session.DefaultTTL)
		tokens = &postgres.TokenLog{DB: pool}
	}

	// Initialize services
	cookies, err := session.NewCookieManager(session.CookieConfig{
		SecretKey: c.SecretKey,
		Secure:    secureCookies,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating cookie manager. Err: %w", err)
	}

	platformClient := platform.NewClient(c.PlatformAddr, logger)
	confirmationService := confirmation.NewService(confirmation.Config{}, platformClient, logger)

	mux := handlers.NewRouter(handlers.Services{
		Exchanger:    platformClient,
		Sessions:     sessions,
		Tokens:       tokens,
		Cookies:      cookies,
		Confirmation: confirmationService,
	}, logger)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		sweeper:    session.NewSweeper(sessions, tokens, logger),
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	sweeperStopped := s.sweeper.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-sweeperStopped

	return err
}

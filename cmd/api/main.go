package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tomlord1122/family-todo/internal/auth"
	"github.com/Tomlord1122/family-todo/internal/config"
	"github.com/Tomlord1122/family-todo/internal/database"
	"github.com/Tomlord1122/family-todo/internal/logging"
	"github.com/Tomlord1122/family-todo/internal/notify"
	"github.com/Tomlord1122/family-todo/internal/repository"
	"github.com/Tomlord1122/family-todo/internal/server"
	"github.com/Tomlord1122/family-todo/internal/service"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	slog.Info("shutting down gracefully, press Ctrl+C again to force")
	stop()

	// The server has 5 seconds to finish the requests it is currently handling.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	if err := dbService.Close(); err != nil {
		slog.Error("close database connection pool", "error", err)
	}

	slog.Info("server exiting")

	done <- true
}

func newNotifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) notify.InviteNotifier {
	if cfg.InviteEmailFrom == "" {
		return notify.NewLogNotifier(logger)
	}

	ses, err := notify.NewSESNotifier(ctx, cfg.AWSRegion, cfg.InviteEmailFrom, cfg.InviteEmailFromName, cfg.AppBaseURL)
	if err != nil {
		logger.Warn("SES unavailable, invites will only be logged", "error", err)
		return notify.NewLogNotifier(logger)
	}
	return ses
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	dbService, err := database.New(cfg.Database)
	if err != nil {
		logger.Error("connect to database", "error", err)
		os.Exit(1)
	}

	logger.Info("running database auto-migration")
	if err := dbService.Migrate(); err != nil {
		logger.Error("migrate database", "error", err)
		os.Exit(1)
	}

	gormDB := dbService.GetDB()

	userRepo := repository.NewGormUserRepository(gormDB)
	membershipRepo := repository.NewGormMembershipRepository(gormDB)
	inviteRepo := repository.NewGormInviteRepository(gormDB)
	todoRepo := repository.NewGormTodoRepository(gormDB)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	notifier := newNotifier(context.Background(), cfg, logger)

	svcs := server.Services{
		Auth:     service.NewAuthService(userRepo, tokens),
		Families: service.NewFamilyService(membershipRepo),
		Invites:  service.NewInviteService(inviteRepo, membershipRepo, userRepo, notifier),
		Todos:    service.NewTodoService(todoRepo, membershipRepo),
	}

	apiServer := server.NewServer(cfg, svcs, dbService)

	done := make(chan bool, 1)

	go gracefulShutdown(apiServer, dbService, done)

	logger.Info("starting server", "addr", apiServer.Addr)
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("graceful shutdown complete")
}

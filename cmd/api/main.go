package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/config"
	"github.com/sefazor/festival-backend/internal/handler"
)

type server struct {
	app *fiber.App
	log *zap.Logger
	cfg *config.Config
}

func provideUserHandler(stores *Stores, log *zap.Logger) *handler.UserHandler {
	return handler.NewUserHandler(stores.Profiles, log)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	srv, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatal("Failed to initialize server: ", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		srv.log.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := srv.app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	srv.log.Info("shutting down")
	if err := srv.app.ShutdownWithTimeout(10 * time.Second); err != nil {
		srv.log.Error("shutdown failed", zap.Error(err))
	}
}

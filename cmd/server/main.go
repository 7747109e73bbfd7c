package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"opportunity-engine/internal/config"
	"opportunity-engine/internal/handler"
	"opportunity-engine/internal/service"
	"opportunity-engine/pkg/logger"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", "", "Configuration file path")
	flag.BoolVar(&app.debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func (app *Application) Run() error {
	cfg, err := config.NewManager().Load(app.configPath)
	if err != nil {
		return err
	}
	if app.debug {
		cfg.Logger.Level = "debug"
	}
	logger.SetLogger(logger.New(cfg.Logger.Logging()))
	log := logger.GetLogger().WithField("component", "server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := fiber.New(fiber.Config{
		AppName:               "opportunity-engine",
		DisableStartupMessage: true,
	})
	server.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	handler.NewController(ctx, service.NewRunService(cfg), cfg.Server.SessionTTL).Register(server)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutdown signal received")
		cancel()
		if err := server.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.WithError(err).Warn("Server shutdown incomplete")
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("Server started")
	if err := server.Listen(addr); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/icekubz/HFC-Dynamic-Protocol/internal/app"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/config"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/handler"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/logger"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	h := handler.New(a.Participants, a.Packages, a.Payouts)
	h.SetPinger(a.Repo)
	adminHandler := handler.NewAdminHandler(a.Batch, a.Reports, a.Reset, a.Packages, a.Payouts, a.Clock)

	srv := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	srv.Use(recover.New())
	srv.Use(fiberlogger.New())
	srv.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Admin-Token",
	}))

	handler.Register(srv, h, adminHandler, cfg.Server.AdminToken)

	if cfg.Batch.Schedule != "" {
		scheduler := service.NewBatchScheduler(a.Batch, a.Clock, log)
		go func() {
			if err := scheduler.Start(ctx, cfg.Batch.Schedule); err != nil {
				log.Error("batch scheduler exited", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		_ = srv.Shutdown()
	}()

	log.Info("server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
	if err := srv.Listen(":" + cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shuttle-bot/internal/shuttle/adapters/ops"
	"shuttle-bot/internal/shuttle/adapters/rabbitmq"
	"shuttle-bot/internal/shuttle/adapters/ws"
	"shuttle-bot/internal/shuttle/bot"
	"shuttle-bot/internal/shuttle/service"
	"shuttle-bot/internal/shuttle/transport/telegram"
	"shuttle-bot/pkg/auth"
	"shuttle-bot/pkg/config"
	"shuttle-bot/pkg/logger"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.NewLogger("shuttle-bot")
	log.Info("service_starting", "TITAN Shuttle bot starting")

	// Connect to Telegram
	tg, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.Channel, log)
	if err != nil {
		log.Error("telegram_connect_failed", err)
		os.Exit(1)
	}

	// Event sinks: the ops live feed always, RabbitMQ when configured
	hub := ws.NewHub(log)
	sinks := []service.EventPublisher{hub}

	if cfg.RabbitMQEnabled() {
		rabbit, err := rabbitmq.NewConnection(cfg, log)
		if err != nil {
			log.Error("rabbitmq_connect_failed", err)
			os.Exit(1)
		}
		defer rabbit.Close()
		sinks = append(sinks, rabbitmq.NewEventPublisher(rabbit, log))
	}
	events := service.NewEventDispatcher(log, sinks...)

	// Wire the ride services
	profiles := service.NewProfiles(log)
	registry := service.NewRegistry(tg, events, cfg.MaxSeats, log)
	engine := service.NewReservationEngine(registry, tg, tg, events, log)
	lifecycle := service.NewLifecycle(registry, tg, events, log)
	collector := service.NewCollector(profiles, registry, tg, cfg.Drivers, cfg.Telegram.Channel, log)

	b := bot.New(collector, engine, lifecycle, tg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ops API is opt-in: without a secret there is nothing to protect
	// the ride snapshot with, so it stays off.
	var opsServer *ops.Server
	if cfg.Ops.JWTSecret != "" {
		jwtManager := auth.NewJWTManager(cfg.Ops.JWTSecret, 24*time.Hour)
		opsServer = ops.NewServer(cfg.Ops.Port, jwtManager, registry, hub, log)
		go func() {
			if err := opsServer.Start(); err != nil {
				log.Error("ops_serve_failed", err)
			}
		}()
	} else {
		log.Info("ops_disabled", "OPS_JWT_SECRET not set, ops API disabled")
	}

	go tg.Run(ctx, b)

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("service_stopping", "Shutdown signal received")

	cancel()
	if opsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("ops_shutdown_failed", err)
		}
	}
	log.Info("service_stopped", "Shutdown complete")
}
